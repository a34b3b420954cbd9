package probe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_AllSectionsFramed(t *testing.T) {
	cmd := Command()
	for _, name := range sectionOrder {
		assert.Contains(t, cmd, sectionMarker(name))
	}
	// Readers only, no shell redirections into files.
	assert.NotContains(t, cmd, ">")
	assert.Contains(t, cmd, "cat /proc/stat")
	assert.Contains(t, cmd, "df -P /")
	assert.Contains(t, cmd, "nproc")
}

func TestCommand_SectionOrderStable(t *testing.T) {
	cmd := Command()
	last := -1
	for _, name := range sectionOrder {
		idx := strings.Index(cmd, sectionMarker(name))
		require.Greater(t, idx, last, "section %s out of order", name)
		last = idx
	}
}

func TestSplitSections(t *testing.T) {
	output := "@@ANSIMON@@stat@@\ncpu 1 2 3\ncpu0 1 2 3\n@@ANSIMON@@loadavg@@\n0.1 0.2 0.3\n"
	sections := SplitSections(output)

	assert.Equal(t, "cpu 1 2 3\ncpu0 1 2 3", sections["stat"])
	assert.Equal(t, "0.1 0.2 0.3", sections["loadavg"])
}

func TestSplitSections_LeadingBannerDiscarded(t *testing.T) {
	output := "Last login: yesterday\n@@ANSIMON@@stat@@\ncpu 1 2 3\n"
	sections := SplitSections(output)

	require.Len(t, sections, 1)
	assert.Equal(t, "cpu 1 2 3", sections["stat"])
}

func TestSplitSections_EmptySection(t *testing.T) {
	output := "@@ANSIMON@@df@@\n@@ANSIMON@@nproc@@\n4\n"
	sections := SplitSections(output)

	assert.Equal(t, "", sections["df"])
	assert.Equal(t, "4", sections["nproc"])
}

func TestErrorDisplayString_Truncated(t *testing.T) {
	e := &Error{Kind: FailRemoteCommand, ExitCode: 1, Detail: strings.Repeat("x", 300)}
	s := e.DisplayString()
	assert.LessOrEqual(t, len(s), 120)
	assert.NotContains(t, s, "\n")
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "final line", stderrTail("first\nsecond\nfinal line\n\n"))
	assert.Equal(t, "", stderrTail("   \n"))
}
