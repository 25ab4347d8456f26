package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/halcyondata/enrich/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec"
	documentLevelPrefix = "doclvl"
	documentIDSeq       = "docrecseq"
	atomPrefix          = "atmrec"
	chunkPrefix         = "chkrec"
	metaVectorDimKey    = "meta:vecdim"
	metaRunPrefix       = "meta:run"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentLevelKey generates a composite key for the pass-level index.
// Format: prefix:level:id, with level and id in BigEndian so prefix scans
// partition documents by level.
func makeDocumentLevelKey(level core.PassLevel, id core.ID) []byte {
	prefix := []byte(documentLevelPrefix + ":")
	buf := make([]byte, len(prefix)+1+8)
	offset := copy(buf, prefix)
	buf[offset] = byte(level)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentLevelKey generates the scan prefix for one pass level.
func makePartialDocumentLevelKey(level core.PassLevel) []byte {
	prefix := []byte(documentLevelPrefix + ":")
	buf := make([]byte, len(prefix)+1)
	offset := copy(buf, prefix)
	buf[offset] = byte(level)
	return buf
}

// makeAtomKey generates a composite key for an atom.
// Format: prefix:documentID:atomID in BigEndian, so all of a document's
// atoms share a scannable prefix.
func makeAtomKey(documentId, atomId core.ID) []byte {
	prefix := []byte(atomPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(atomId))
	return buf
}

// makePartialAtomKey generates the scan prefix for one document's atoms.
func makePartialAtomKey(documentId core.ID) []byte {
	prefix := []byte(atomPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentID:index in BigEndian; index order is key order,
// so a prefix scan yields chunks in position order.
func makeChunkKey(documentId core.ID, index int) []byte {
	prefix := []byte(chunkPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makePartialChunkKey generates the scan prefix for one document's chunks.
func makePartialChunkKey(documentId core.ID) []byte {
	prefix := []byte(chunkPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeRunRecordKey generates a key for the last run record of a kind.
func makeRunRecordKey(kind string) []byte {
	return []byte(fmt.Sprintf("%s:%s", metaRunPrefix, kind))
}
