package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"ID", "NAME"}, [][]string{
		{"1", "Moscow"},
		{"12", "Saint Petersburg"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ID")
	assert.Equal(t, "1   Moscow", lines[1])
	assert.Equal(t, "12  Saint Petersburg", lines[2])
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "created %q", "travel")
	Error(&buf, "no such category")
	out := buf.String()
	assert.Contains(t, out, `created "travel"`)
	assert.Contains(t, out, "no such category")
}
