package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/syllabus/core"
)

// Key prefixes for different data types
const (
	jobPrefix             = "job"
	jobRequestPrefix      = "jobreq"
	jobRoadmapPrefix      = "jobroad"
	embeddingPrefix       = "emb"
	embeddingCoursePrefix = "embcourse"
	embeddingContentKey   = "embcontent"
	embeddingIDSeq        = "embseq"
	metaDimensionKey      = "meta:dim"
)

// makeJobKey generates a key for a job by id.
func makeJobKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobPrefix, id))
}

// makeJobRequestKey generates a key for the request a job was created from.
func makeJobRequestKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobRequestPrefix, id))
}

// makeJobRoadmapKey generates the claim key a non-terminal job holds on its roadmap.
func makeJobRoadmapKey(roadmapID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobRoadmapPrefix, roadmapID))
}

// makeEmbeddingKey generates a key for an embedding by id.
// The id is big-endian so prefix iteration returns embeddings in id order.
func makeEmbeddingKey(id core.ID) []byte {
	prefix := embeddingPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialCourseKey generates the prefix of every course index entry.
// Format: prefix:courseID\x00
func makePartialCourseKey(courseID string) []byte {
	prefix := embeddingCoursePrefix + ":"
	buf := make([]byte, len(prefix)+len(courseID)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], courseID)
	buf[offset] = 0
	return buf
}

// makeCourseKey generates a composite key for the course index.
// Format: prefix:courseID\x00id
func makeCourseKey(courseID string, id core.ID) []byte {
	partial := makePartialCourseKey(courseID)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeContentKey generates the lookup key for a logical content reference.
// Format: prefix:courseID\x00contentID
func makeContentKey(courseID, contentID string) []byte {
	prefix := embeddingContentKey + ":"
	buf := make([]byte, len(prefix)+len(courseID)+1+len(contentID))
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], courseID)
	buf[offset] = 0
	offset++
	copy(buf[offset:], contentID)
	return buf
}
