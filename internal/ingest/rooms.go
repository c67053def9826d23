package ingest

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"

	"insight/internal/markup"
	"insight/internal/record"
)

const buildingIndex = "rooms/index.htm"

// The source pages mark their table cells with view classes. Only
// these classes identify cells reliably; table position does not.
const (
	classBuildingCode    = "views-field-field-building-code"
	classBuildingAddress = "views-field-field-building-address"
	classRoomNumber      = "views-field-field-room-number"
	classRoomCapacity    = "views-field-field-room-capacity"
	classRoomFurniture   = "views-field-field-room-furniture"
	classRoomType        = "views-field-field-room-type"
	classRoomHref        = "views-field-nothing"
)

// building is one row of the campus index: where the building's page
// lives in the archive plus the identity shared by all its rooms.
type building struct {
	path    string
	code    string
	address string
}

func (b *Builder) buildRooms(ctx context.Context, id string, zr *zip.Reader) ([]record.Record, error) {
	index := findFile(zr, buildingIndex)
	if index == nil {
		return nil, ErrMissingBuildings
	}
	data, err := readAll(index)
	if err != nil {
		return nil, ErrMissingBuildings
	}
	buildings, err := parseBuildingIndex(data)
	if err != nil || len(buildings) == 0 {
		return nil, ErrMissingBuildings
	}

	groups := make([][]record.Record, len(buildings))
	err = b.fanOut(ctx, len(buildings), func(ctx context.Context, i int) error {
		recs, err := b.buildingRooms(ctx, id, zr, buildings[i])
		if err != nil {
			b.Log.Warn().Str("dataset", id).Str("building", buildings[i].code).Err(err).Msg("skipping building")
			return nil
		}
		groups[i] = recs
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := joinGroups(groups)
	if len(records) == 0 {
		return nil, ErrMissingRooms
	}
	return records, nil
}

// parseBuildingIndex extracts one building per table row that carries
// a code, an address, and a link to the building's own page. Rows
// missing any of the three are not buildings.
func parseBuildingIndex(data []byte) ([]building, error) {
	doc, err := markup.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var out []building
	for _, row := range markup.FindAll(doc, "tr") {
		code := cellText(row, classBuildingCode)
		address := cellText(row, classBuildingAddress)
		path := rowLink(row)
		if code == "" || address == "" || path == "" {
			continue
		}
		out = append(out, building{
			path:    "rooms/" + strings.TrimPrefix(path, "./"),
			code:    code,
			address: address,
		})
	}
	return out, nil
}

// buildingRooms geocodes the building once and converts each of its
// room rows into records keyed "<id>_<field>". A building whose
// address cannot be resolved contributes no rooms.
func (b *Builder) buildingRooms(ctx context.Context, id string, zr *zip.Reader, bld building) ([]record.Record, error) {
	f := findFile(zr, bld.path)
	if f == nil {
		return nil, nil
	}
	data, err := readAll(f)
	if err != nil {
		return nil, err
	}
	doc, err := markup.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	rows := roomRows(doc)
	if len(rows) == 0 {
		return nil, nil
	}

	lat, lon, err := b.Geo.Resolve(ctx, bld.address)
	if err != nil {
		return nil, err
	}
	if lat == 0 && lon == 0 {
		return nil, nil
	}

	fullname := spanText(doc)

	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		number := cellText(row, classRoomNumber)
		if number == "" {
			continue
		}
		out = append(out, record.Record{
			id + "_fullname":  record.String(fullname),
			id + "_shortname": record.String(bld.code),
			id + "_number":    record.String(number),
			id + "_name":      record.String(bld.code + "_" + number),
			id + "_address":   record.String(bld.address),
			id + "_lat":       record.Number(lat),
			id + "_lon":       record.Number(lon),
			id + "_seats":     record.Number(float64(cellSeats(row))),
			id + "_type":      record.String(cellText(row, classRoomType)),
			id + "_furniture": record.String(cellText(row, classRoomFurniture)),
			id + "_href":      record.String(cellLink(row, classRoomHref)),
		})
	}
	return out, nil
}

// roomRows returns table rows that carry a room-number cell, the one
// cell every room listing has.
func roomRows(doc *markup.Node) []*markup.Node {
	var out []*markup.Node
	for _, row := range markup.FindAll(doc, "tr") {
		if markup.First(row, "td", classRoomNumber) != nil {
			out = append(out, row)
		}
	}
	return out
}

// spanText reads the building's full name from the page header span.
func spanText(doc *markup.Node) string {
	if span := markup.First(doc, "span", "field-content"); span != nil {
		return markup.Text(span)
	}
	return ""
}

// cellText reads the normalized text of the row's cell carrying the
// class token, preferring anchor text when the cell links out.
func cellText(row *markup.Node, class string) string {
	cell := markup.First(row, "td", class)
	if cell == nil {
		return ""
	}
	if a := markup.First(cell, "a", ""); a != nil {
		if txt := markup.Text(a); txt != "" {
			return txt
		}
	}
	return markup.Text(cell)
}

// cellLink reads the href of the first anchor in the classed cell.
func cellLink(row *markup.Node, class string) string {
	cell := markup.First(row, "td", class)
	if cell == nil {
		return ""
	}
	if a := markup.First(cell, "a", ""); a != nil {
		return markup.Attr(a, "href")
	}
	return ""
}

// rowLink finds the building page link anywhere in an index row.
func rowLink(row *markup.Node) string {
	if a := markup.First(row, "a", ""); a != nil {
		return markup.Attr(a, "href")
	}
	return ""
}

// cellSeats parses the capacity cell, defaulting to zero when the
// cell is absent or not numeric.
func cellSeats(row *markup.Node) int {
	txt := cellText(row, classRoomCapacity)
	if txt == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(txt))
	if err != nil {
		return 0
	}
	return n
}
