package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<html><body>
<table>
 <tbody>
  <tr class="odd">
   <td class="views-field views-field-field-room-number"><a href="./room/ANGU_098">098</a></td>
   <td class="views-field views-field-field-room-capacity">&nbsp; 260 </td>
  </tr>
  <tr class="even">
   <td class="views-field views-field-field-room-number"><a href="./room/ANGU_234">234</a></td>
   <td class="views-field views-field-field-room-capacity"> 60</td>
  </tr>
 </tbody>
</table>
<span class="field-content">Henry Angus</span>
</body></html>`

func parseSample(t *testing.T) *Node {
	t.Helper()
	n, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	return n
}

func TestFindAll(t *testing.T) {
	doc := parseSample(t)
	assert.Len(t, FindAll(doc, "tr"), 2)
	assert.Len(t, FindAll(doc, "td"), 4)
	assert.Len(t, FindAll(doc, "table"), 1)
}

func TestFindByClass_WholeTokenOnly(t *testing.T) {
	doc := parseSample(t)

	cells := FindByClass(doc, "td", "views-field-field-room-number")
	assert.Len(t, cells, 2)

	// "views-field" is a token of every cell; a substring match would
	// also catch the longer room-number tokens.
	all := FindByClass(doc, "td", "views-field")
	assert.Len(t, all, 4)

	assert.Empty(t, FindByClass(doc, "td", "views-field-field-room"))
}

func TestText_NormalizesWhitespace(t *testing.T) {
	doc := parseSample(t)
	caps := FindByClass(doc, "td", "views-field-field-room-capacity")
	require.Len(t, caps, 2)

	// Non-breaking space and padding are stripped.
	assert.Equal(t, "260", Text(caps[0]))
	assert.Equal(t, "60", Text(caps[1]))
}

func TestAttr(t *testing.T) {
	doc := parseSample(t)
	links := FindAll(doc, "a")
	require.NotEmpty(t, links)
	assert.Equal(t, "./room/ANGU_098", Attr(links[0], "href"))
	assert.Equal(t, "", Attr(links[0], "title"))
}

func TestFirst(t *testing.T) {
	doc := parseSample(t)
	span := First(doc, "span", "field-content")
	require.NotNil(t, span)
	assert.Equal(t, "Henry Angus", Text(span))

	assert.Nil(t, First(doc, "span", "missing-class"))
}
