package probe

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	amerrors "github.com/rileyhilliard/ansimon/internal/errors"
)

// ErrKeyPassphrase indicates the key parsed but is passphrase protected.
// The ssh binary may still authenticate through an agent, so this is a
// warning, not a startup failure.
var ErrKeyPassphrase = errors.New("private key is passphrase protected")

// ValidateKey checks that an explicitly configured private key exists and
// parses, so a typo fails once at startup instead of once per host per
// tick.
func ValidateKey(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return amerrors.WrapWithCode(err, amerrors.ErrConfig,
			fmt.Sprintf("Cannot read SSH key %s", path),
			"Check the path passed with -k/--key.")
	}

	if _, err := ssh.ParseRawPrivateKey(data); err != nil {
		var passErr *ssh.PassphraseMissingError
		if errors.As(err, &passErr) {
			return ErrKeyPassphrase
		}
		return amerrors.WrapWithCode(err, amerrors.ErrConfig,
			fmt.Sprintf("%s is not a usable private key", path),
			"Point -k/--key at an OpenSSH private key file.")
	}

	return nil
}
