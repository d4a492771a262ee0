package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/toolcast/model"
)

func testSnapshot() model.ItemSnapshot {
	return model.ItemSnapshot{
		ItemID:      7,
		Name:        "Linter Pro",
		Description: "Finds **bugs** early.\n\n<script>alert(1)</script>",
		Category:    "Developer Tools",
		URL:         "https://tools.example/tools/7",
		ImageURL:    "https://cdn.example/linter.png",
	}
}

func TestRender_Defaults(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	msg, err := r.Render(testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, "[Toolcast] New tool: Linter Pro", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "<strong>bugs</strong>")
	assert.Contains(t, msg.HTMLBody, `href="https://tools.example/tools/7"`)
	assert.Contains(t, msg.HTMLBody, `src="https://cdn.example/linter.png"`)
	assert.NotContains(t, msg.HTMLBody, "<script>")
	assert.Contains(t, msg.TextBody, "New on Toolcast: Linter Pro")
	assert.Contains(t, msg.TextBody, "Category: Developer Tools")
	assert.Contains(t, msg.TextBody, "https://tools.example/tools/7")
	assert.NotContains(t, msg.TextBody, "Unsubscribe")
}

func TestRender_Options(t *testing.T) {
	r, err := New(
		WithSiteName("AI Directory"),
		WithSubjectFormat("%s | %s"),
		WithUnsubscribeURL("https://tools.example/unsubscribe"),
	)
	require.NoError(t, err)

	msg, err := r.Render(testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, "AI Directory | Linter Pro", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "https://tools.example/unsubscribe")
	assert.Contains(t, msg.TextBody, "Unsubscribe: https://tools.example/unsubscribe")
}

func TestRender_EscapesName(t *testing.T) {
	r := Must(New())
	snap := testSnapshot()
	snap.Name = `<b>Bold</b> & Co`

	msg, err := r.Render(snap)
	require.NoError(t, err)
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;Bold&lt;/b&gt; &amp; Co")
}

func TestRender_MissingName(t *testing.T) {
	r := Must(New())
	snap := testSnapshot()
	snap.Name = "  "

	_, err := r.Render(snap)
	assert.Error(t, err)
}

func TestRender_SameMessageEveryCall(t *testing.T) {
	r := Must(New())
	a, err := r.Render(testSnapshot())
	require.NoError(t, err)
	b, err := r.Render(testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithSiteName(" "))
	assert.Error(t, err)

	_, err = New(WithSubjectFormat("New: %s"))
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "two"))
}
