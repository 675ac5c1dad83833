// Package pbftest builds small, valid OSM PBF files for tests.
//
// The fixture holds two dense nodes, two ways and one administrative
// boundary relation whose second member (way/999) is not in the file:
//
//	node/1, node/2
//	way/10 [1 2] highway=residential   member of relation/5
//	way/11 [2]   highway=service       unrelated
//	relation/5   name=Test admin_level=4 boundary=administrative
//	             members: way/10 outer, way/999 outer
package pbftest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

// Line is the JSON record expected for relation/5.
const Line = `{"type":"relation","id":5,"tags":{"admin_level":"4","boundary":"administrative","name":"Test"},"members":[{"type":"way","id":10,"role":"outer"},{"type":"way","id":999,"role":"outer"}]}`

var stringTable = []string{
	"", // index 0 is reserved
	"highway", "residential", "service",
	"name", "Test", "admin_level", "4", "boundary", "administrative",
	"outer",
}

func sid(s string) uint64 {
	for i, v := range stringTable {
		if v == s {
			return uint64(i)
		}
	}
	panic("pbftest: string not in table: " + s)
}

// Write stores the fixture in a temp dir and returns its path.
func Write(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.osm.pbf")
	if err := os.WriteFile(path, Encode(), 0o644); err != nil {
		t.Fatalf("write pbf fixture: %v", err)
	}
	return path
}

// Encode returns the fixture as an uncompressed PBF file.
func Encode() []byte {
	var out []byte
	out = appendBlock(out, "OSMHeader", headerBlock())
	out = appendBlock(out, "OSMData", primitiveBlock())
	return out
}

type msg []byte

func (m msg) varint(n protowire.Number, v uint64) msg {
	m = protowire.AppendTag(m, n, protowire.VarintType)
	return protowire.AppendVarint(m, v)
}

func (m msg) bytes(n protowire.Number, b []byte) msg {
	m = protowire.AppendTag(m, n, protowire.BytesType)
	return protowire.AppendBytes(m, b)
}

func (m msg) str(n protowire.Number, s string) msg {
	return m.bytes(n, []byte(s))
}

func (m msg) packed(n protowire.Number, vals ...uint64) msg {
	var p []byte
	for _, v := range vals {
		p = protowire.AppendVarint(p, v)
	}
	return m.bytes(n, p)
}

// deltas writes a packed sint64 field, delta coded as PBF expects.
func (m msg) deltas(n protowire.Number, vals ...int64) msg {
	out := make([]uint64, len(vals))
	var prev int64
	for i, v := range vals {
		out[i] = protowire.EncodeZigZag(v - prev)
		prev = v
	}
	return m.packed(n, out...)
}

// appendBlock frames one blob: big-endian header length, BlobHeader, Blob.
func appendBlock(out []byte, typ string, payload msg) []byte {
	// Blob: raw = 1, raw_size = 2
	blob := msg(nil).bytes(1, payload).varint(2, uint64(len(payload)))
	// BlobHeader: type = 1, datasize = 3
	header := msg(nil).str(1, typ).varint(3, uint64(len(blob)))

	out = binary.BigEndian.AppendUint32(out, uint32(len(header)))
	out = append(out, header...)
	return append(out, blob...)
}

// HeaderBlock: required_features = 4, writingprogram = 16
func headerBlock() msg {
	return msg(nil).
		str(4, "OsmSchema-V0.6").
		str(4, "DenseNodes").
		str(16, "osmbounds-test")
}

// Info: version, timestamp, changeset, uid, user_sid, visible = 1..6
func info() msg {
	return msg(nil).
		varint(1, 1).
		varint(2, 1700000000).
		varint(3, 1).
		varint(4, 1).
		varint(5, 0).
		varint(6, 1)
}

// DenseNodes: id = 1, denseinfo = 5, lat = 8, lon = 9, keys_vals = 10.
// DenseInfo uses the Info field numbers, packed and delta coded.
func denseNodes() msg {
	denseInfo := msg(nil).
		packed(1, 1, 1).
		deltas(2, 1700000000, 1700000000).
		deltas(3, 1, 1).
		deltas(4, 1, 1).
		deltas(5, 0, 0).
		packed(6, 1, 1)

	return msg(nil).
		deltas(1, 1, 2).
		bytes(5, denseInfo).
		deltas(8, 515000000, 515001000).
		deltas(9, -1000, -2000).
		packed(10, 0, 0)
}

// Way: id = 1, keys = 2, vals = 3, info = 4, refs = 8
func way(id int64, highway string, refs ...int64) msg {
	return msg(nil).
		varint(1, uint64(id)).
		packed(2, sid("highway")).
		packed(3, sid(highway)).
		bytes(4, info()).
		deltas(8, refs...)
}

// Relation: id = 1, keys = 2, vals = 3, info = 4, roles_sid = 8,
// memids = 9, types = 10 (1 is WAY)
func boundaryRelation() msg {
	return msg(nil).
		varint(1, 5).
		packed(2, sid("name"), sid("admin_level"), sid("boundary")).
		packed(3, sid("Test"), sid("4"), sid("administrative")).
		bytes(4, info()).
		packed(8, sid("outer"), sid("outer")).
		deltas(9, 10, 999).
		packed(10, 1, 1)
}

// PrimitiveBlock: stringtable = 1, primitivegroup = 2.
// PrimitiveGroup: dense = 2, ways = 3, relations = 4.
func primitiveBlock() msg {
	var table msg
	for _, s := range stringTable {
		table = table.str(1, s)
	}

	return msg(nil).
		bytes(1, table).
		bytes(2, msg(nil).bytes(2, denseNodes())).
		bytes(2, msg(nil).bytes(3, way(10, "residential", 1, 2)).bytes(3, way(11, "service", 2))).
		bytes(2, msg(nil).bytes(4, boundaryRelation()))
}
