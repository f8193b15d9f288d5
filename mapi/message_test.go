package mapi

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-outlook/msgcfb/cfb"
)

const testSectorSize = 512

func tU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func tU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

const (
	tFreeSect   uint32 = 0xFFFFFFFF
	tEndOfChain uint32 = 0xFFFFFFFE
	tFatSect    uint32 = 0xFFFFFFFD
)

func tPutName(entry []byte, name string) {
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		tU16(entry[i*2:i*2+2], u)
	}
	tU16(entry[64:66], uint16((len(units)+1)*2))
}

// tPutDirEntry writes one 128-byte directory record.
func tPutDirEntry(dir []byte, idx int, name string, objType uint8, left, right, child, startSect uint32, size uint64) {
	rec := dir[idx*128 : idx*128+128]
	tPutName(rec, name)
	rec[66] = objType
	tU32(rec[68:72], left)
	tU32(rec[72:76], right)
	tU32(rec[76:80], child)
	tU32(rec[116:120], startSect)
	for i := 0; i < 8; i++ {
		rec[120+i] = byte(size >> (8 * i))
	}
}

func utf16leBytes(s string, terminate bool) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2+2)
	for _, u := range units {
		var b [2]byte
		tU16(b[:], u)
		out = append(out, b[:]...)
	}
	if terminate {
		out = append(out, 0, 0)
	}
	return out
}

// buildMessageCFB assembles a minimal CFB image with a root message
// carrying a Subject property and one recipient carrying a
// DisplayName property, entirely inside the mini-stream (spec §4.E's
// below-cutoff path), the way cfb_test.go's buildSyntheticCFB builds
// its fixtures.
func buildMessageCFB(t *testing.T) []byte {
	t.Helper()

	rootHeader := make([]byte, 32)
	tU32(rootHeader[16:20], 1) // num_recipients
	subjectRec := make([]byte, 16)
	tU16(subjectRec[0:2], PtypString)
	tU16(subjectRec[2:4], PidTagSubject)
	rootProps := append(rootHeader, subjectRec...) // 48 bytes

	subjectStream := utf16leBytes("Hi", true) // 6 bytes

	recipHeader := make([]byte, 8)
	displayNameRec := make([]byte, 16)
	tU16(displayNameRec[0:2], PtypString)
	tU16(displayNameRec[2:4], PidTagRecipientDisplayName)
	recipProps := append(recipHeader, displayNameRec...) // 24 bytes

	displayNameStream := utf16leBytes("Bob", true) // 8 bytes

	buf := make([]byte, testSectorSize+5*testSectorSize) // header + sectors 0..4

	h := buf[:testSectorSize]
	copy(h[0:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	tU16(h[26:28], 3)
	tU16(h[28:30], 0xFFFE)
	tU16(h[30:32], 9) // 512-byte sectors
	tU32(h[32:36], 6) // 64-byte mini sectors
	tU32(h[44:48], 1) // fat_size
	tU32(h[48:52], 1) // dir_sector
	tU32(h[56:60], 4096)
	tU32(h[60:64], 3) // mini_fat_sector
	tU32(h[64:68], 1) // mini_fat_size
	tU32(h[68:72], tEndOfChain)
	tU32(h[72:76], 0)
	tU32(h[76:80], 0) // initial DIFAT[0] = FAT sector 0
	for i := 1; i < 109; i++ {
		tU32(h[76+i*4:80+i*4], tFreeSect)
	}

	sector := func(n int) []byte {
		off := testSectorSize + n*testSectorSize
		return buf[off : off+testSectorSize]
	}

	fat := sector(0)
	for i := range fat {
		fat[i] = 0xFF
	}
	tU32(fat[0:4], tFatSect)
	tU32(fat[4:8], 2)            // dir sector 1 -> 2
	tU32(fat[8:12], tEndOfChain) // dir sector 2
	tU32(fat[12:16], tEndOfChain) // mini-fat sector 3
	tU32(fat[16:20], tEndOfChain) // mini-stream data sector 4

	miniFat := sector(3)
	for i := range miniFat {
		miniFat[i] = 0xFF
	}
	tU32(miniFat[0:4], tEndOfChain) // mini-sector 0: root props
	tU32(miniFat[4:8], tEndOfChain) // mini-sector 1: subject
	tU32(miniFat[8:12], tEndOfChain) // mini-sector 2: recipient props
	tU32(miniFat[12:16], tEndOfChain) // mini-sector 3: recipient display name

	mini := sector(4)
	copy(mini[0*64:], rootProps)
	copy(mini[1*64:], subjectStream)
	copy(mini[2*64:], recipProps)
	copy(mini[3*64:], displayNameStream)

	dir1 := sector(1)
	dir2 := sector(2)
	dir := append(append([]byte{}, dir1...), dir2...)

	tPutDirEntry(dir, 0, "Root Entry", 0x5, tFreeSect, tFreeSect, 1, 4, 256)
	tPutDirEntry(dir, 1, StorageProps, 0x2, tFreeSect, 2, tFreeSect, 0, uint64(len(rootProps)))
	tPutDirEntry(dir, 2, substreamName(PidTagSubject, PtypString), 0x2, tFreeSect, 3, tFreeSect, 1, uint64(len(subjectStream)))
	tPutDirEntry(dir, 3, StorageRecip+"#00000000", 0x1, tFreeSect, tFreeSect, 4, tEndOfChain, 0)
	tPutDirEntry(dir, 4, StorageProps, 0x2, tFreeSect, 5, tFreeSect, 2, uint64(len(recipProps)))
	tPutDirEntry(dir, 5, substreamName(PidTagRecipientDisplayName, PtypString), 0x2, tFreeSect, tFreeSect, tFreeSect, 3, uint64(len(displayNameStream)))

	copy(dir1, dir[:testSectorSize])
	copy(dir2, dir[testSectorSize:])

	return buf
}

func TestOpenMessageSubjectAndRecipient(t *testing.T) {
	data := buildMessageCFB(t)
	r, err := cfb.Open(cfb.NewMemorySource(data))
	require.NoError(t, err)

	msg, err := Open(r)
	require.NoError(t, err)

	subj, err := msg.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Hi", subj)

	require.Len(t, msg.Recipients, 1)
	name, err := msg.Recipients[0].DisplayName()
	require.NoError(t, err)
	assert.Equal(t, "Bob", name)

	assert.Equal(t, uint32(1), msg.NumRecipients())

	has, _ := msg.HasAttachments()
	assert.False(t, has)
	assert.Empty(t, msg.Attachments)
}

// buildAttachmentCFB assembles a minimal CFB image for a message with
// two attachments: a plain binary attachment and an embedded-message
// attachment whose PidTagAttachDataObject is itself a recursive CFB
// sub-storage (spec §4.H), entirely inside the mini-stream.
func buildAttachmentCFB(t *testing.T) []byte {
	t.Helper()

	rootHeader := make([]byte, 32)
	tU32(rootHeader[20:24], 2) // num_attachments
	hasAttachRec := make([]byte, 16)
	tU16(hasAttachRec[0:2], PtypBoolean)
	tU16(hasAttachRec[2:4], PidTagHasAttachments)
	hasAttachRec[8] = 1
	rootProps := append(rootHeader, hasAttachRec...) // 48 bytes

	attach1Header := make([]byte, 8)
	methodRec := make([]byte, 16)
	tU16(methodRec[0:2], PtypInteger32)
	tU16(methodRec[2:4], PidTagAttachMethod)
	tU32(methodRec[8:12], 1)
	sizeRec := make([]byte, 16)
	tU16(sizeRec[0:2], PtypInteger32)
	tU16(sizeRec[2:4], PidTagAttachmentSize)
	tU32(sizeRec[8:12], 8)
	attach1Props := append(append(attach1Header, methodRec...), sizeRec...) // 40 bytes
	attach1Data := []byte("filedata")                                      // 8 bytes

	attach2Header := make([]byte, 8)
	method2Rec := make([]byte, 16)
	tU16(method2Rec[0:2], PtypInteger32)
	tU16(method2Rec[2:4], PidTagAttachMethod)
	tU32(method2Rec[8:12], 5) // ATTACH_EMBEDDED_MSG
	attach2Props := append(attach2Header, method2Rec...)  // 24 bytes
	attach2Mime := utf16leBytes("message/rfc822", true) // 30 bytes

	embeddedProps := make([]byte, 24) // embedded-message header, no inline records
	embeddedSubject := utf16leBytes("Nested", true) // 14 bytes

	buf := make([]byte, testSectorSize*7) // header + sectors 0..5

	h := buf[:testSectorSize]
	copy(h[0:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	tU16(h[26:28], 3)
	tU16(h[28:30], 0xFFFE)
	tU16(h[30:32], 9) // 512-byte sectors
	tU32(h[32:36], 6) // 64-byte mini sectors
	tU32(h[44:48], 1) // fat_size
	tU32(h[48:52], 1) // dir_sector
	tU32(h[56:60], 4096)
	tU32(h[60:64], 4) // mini_fat_sector
	tU32(h[64:68], 1) // mini_fat_size
	tU32(h[68:72], tEndOfChain)
	tU32(h[72:76], 0)
	tU32(h[76:80], 0) // initial DIFAT[0] = FAT sector 0
	for i := 1; i < 109; i++ {
		tU32(h[76+i*4:80+i*4], tFreeSect)
	}

	sector := func(n int) []byte {
		off := testSectorSize + n*testSectorSize
		return buf[off : off+testSectorSize]
	}

	fat := sector(0)
	for i := range fat {
		fat[i] = 0xFF
	}
	tU32(fat[0:4], tFatSect)
	tU32(fat[4:8], 2)             // dir sector 1 -> 2
	tU32(fat[8:12], 3)            // dir sector 2 -> 3
	tU32(fat[12:16], tEndOfChain) // dir sector 3
	tU32(fat[16:20], tEndOfChain) // mini-fat sector 4
	tU32(fat[20:24], tEndOfChain) // mini-stream data sector 5

	miniFat := sector(4)
	for i := range miniFat {
		miniFat[i] = 0xFF
	}
	for i := 0; i < 7; i++ {
		tU32(miniFat[i*4:i*4+4], tEndOfChain)
	}

	mini := sector(5)
	copy(mini[0*64:], rootProps)
	copy(mini[1*64:], attach1Props)
	copy(mini[2*64:], attach1Data)
	copy(mini[3*64:], attach2Props)
	copy(mini[4*64:], attach2Mime)
	copy(mini[5*64:], embeddedProps)
	copy(mini[6*64:], embeddedSubject)

	dir1 := sector(1)
	dir2 := sector(2)
	dir3 := sector(3)
	dir := append(append(append([]byte{}, dir1...), dir2...), dir3...)

	// Root's direct children: props, attachment 1 storage, attachment 2 storage.
	tPutDirEntry(dir, 0, "Root Entry", 0x5, tFreeSect, tFreeSect, 1, 5, 448)
	tPutDirEntry(dir, 1, StorageProps, 0x2, tFreeSect, 2, tFreeSect, 0, uint64(len(rootProps)))
	tPutDirEntry(dir, 2, StorageAttach+"#00000000", 0x1, tFreeSect, 3, 4, 0, 0)
	tPutDirEntry(dir, 3, StorageAttach+"#00000001", 0x1, tFreeSect, tFreeSect, 6, 0, 0)

	// Attachment 1's direct children: props, raw data stream.
	tPutDirEntry(dir, 4, StorageProps, 0x2, tFreeSect, 5, tFreeSect, 1, uint64(len(attach1Props)))
	tPutDirEntry(dir, 5, substreamName(PidTagAttachDataBinary, PtypBinary), 0x2, tFreeSect, tFreeSect, tFreeSect, 2, uint64(len(attach1Data)))

	// Attachment 2's direct children: props, mime, embedded-message storage.
	tPutDirEntry(dir, 6, StorageProps, 0x2, tFreeSect, 7, tFreeSect, 3, uint64(len(attach2Props)))
	tPutDirEntry(dir, 7, substreamName(PidTagAttachMimeTag, PtypString), 0x2, tFreeSect, 8, tFreeSect, 4, uint64(len(attach2Mime)))
	tPutDirEntry(dir, 8, substreamName(PidTagAttachDataObject, PtypObject), 0x1, tFreeSect, tFreeSect, 9, 0, 0)

	// Embedded message's direct children: props, subject.
	tPutDirEntry(dir, 9, StorageProps, 0x2, tFreeSect, 10, tFreeSect, 5, uint64(len(embeddedProps)))
	tPutDirEntry(dir, 10, substreamName(PidTagSubject, PtypString), 0x2, tFreeSect, tFreeSect, tFreeSect, 6, uint64(len(embeddedSubject)))

	copy(dir1, dir[:testSectorSize])
	copy(dir2, dir[testSectorSize:testSectorSize*2])
	copy(dir3, dir[testSectorSize*2:])

	return buf
}

func TestOpenMessageWithAttachments(t *testing.T) {
	data := buildAttachmentCFB(t)
	r, err := cfb.Open(cfb.NewMemorySource(data))
	require.NoError(t, err)

	msg, err := Open(r)
	require.NoError(t, err)

	has, err := msg.HasAttachments()
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, uint32(2), msg.NumAttachments())
	require.Len(t, msg.Attachments, 2)

	plain := msg.Attachments[0]
	method, ok := plain.AttachMethod()
	require.True(t, ok)
	assert.EqualValues(t, 1, method)
	size, ok := plain.Size()
	require.True(t, ok)
	assert.EqualValues(t, 8, size)
	data1, err := plain.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("filedata"), data1)
	assert.False(t, plain.Embedded())

	nested := msg.Attachments[1]
	mime, err := nested.Mime()
	require.NoError(t, err)
	assert.Equal(t, "message/rfc822", mime)
	assert.True(t, nested.Embedded())

	embedded, err := nested.GetEmbeddedAttachment()
	require.NoError(t, err)
	require.NotNil(t, embedded)
	subj, err := embedded.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Nested", subj)
	assert.Empty(t, embedded.Attachments)
	assert.Empty(t, embedded.Recipients)
}
