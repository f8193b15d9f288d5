package mapi

import (
	"time"

	"github.com/pkg/errors"

	"github.com/go-outlook/msgcfb/cfb"
	"github.com/go-outlook/msgcfb/rtf"
)

// propStorage is the common base every message-level object (root,
// recipient, attachment) composes: a directory entry plus its parsed
// property stream and the CFB reader it borrows substreams from. It
// mirrors the source's MsgStorage, generalised into a Go composition
// base instead of a conditional-header base class (spec §9).
type propStorage struct {
	r     *cfb.Reader
	entry *cfb.DirectoryEntry
	props *propertyStream
	named *namedPropertyMap
}

func newPropStorage(r *cfb.Reader, entry *cfb.DirectoryEntry, kind StorageKind, named *namedPropertyMap) (*propStorage, error) {
	props, err := readPropertyStream(r, entry, kind)
	if err != nil {
		return nil, err
	}
	return &propStorage{r: r, entry: entry, props: props, named: named}, nil
}

// findEntry locates the substream/storage for (tag, type), resolving
// dispatch ids (tag in [0x8000, 0xFFFE]) through the named-property
// map first, per spec §4.F.
func (s *propStorage) findEntry(tag, typ uint16) *cfb.DirectoryEntry {
	name, ok := s.substreamName(tag, typ)
	if !ok {
		return nil
	}
	return s.r.Find(s.entry, name)
}

func (s *propStorage) substreamName(tag, typ uint16) (string, bool) {
	if tag >= dispatchMin && tag <= dispatchMax {
		if s.named == nil {
			return "", false
		}
		return s.named.substreamForDispatch(tag, typ)
	}
	return substreamName(tag, typ), true
}

// stream reads the substream for (tag, type). A nil, nil result means
// the optional property is absent, not an error (spec §7).
func (s *propStorage) stream(tag, typ uint16) ([]byte, error) {
	e := s.findEntry(tag, typ)
	if e == nil {
		return nil, nil
	}
	return s.r.ReadStream(e)
}

func (s *propStorage) str(tag uint16) (string, error) {
	b, err := s.stream(tag, PtypString)
	if err != nil {
		return "", err
	}
	return decodeString(b), nil
}

// Root is the façade over a message's root storage — either the CFB
// root itself or an embedded message's sub-storage, per spec §4.H.
type Root struct {
	*propStorage
}

func newRoot(r *cfb.Reader, entry *cfb.DirectoryEntry, kind StorageKind, named *namedPropertyMap) (*Root, error) {
	ps, err := newPropStorage(r, entry, kind, named)
	if err != nil {
		return nil, err
	}
	return &Root{propStorage: ps}, nil
}

func (root *Root) MessageClass() (string, error) { return root.str(PidTagMessageClass) }
func (root *Root) MessageID() (string, error)     { return root.str(PidTagInternetMessageId) }
func (root *Root) DisplayTo() (string, error)     { return root.str(PidTagDisplayTo) }
func (root *Root) DisplayCc() (string, error)     { return root.str(PidTagDisplayCc) }
func (root *Root) DisplayBcc() (string, error)    { return root.str(PidTagDisplayBcc) }
func (root *Root) SenderName() (string, error)         { return root.str(PidTagSenderName) }
func (root *Root) SenderEmailAddress() (string, error) { return root.str(PidTagSenderEmailAddress) }
func (root *Root) SenderSmtpAddress() (string, error)  { return root.str(PidTagSenderSmtpAddress) }

// SentRepresentingName, …SmtpAddress and …EmailAddress expose the "on
// behalf of" sender triad alongside SenderName et al. (SPEC_FULL.md §7
// supplemented feature, grounded in mapi_tags.py).
func (root *Root) SentRepresentingName() (string, error) {
	return root.str(PidTagSentRepresentingName)
}
func (root *Root) SentRepresentingSmtpAddress() (string, error) {
	return root.str(PidTagSentRepresentingSmtpAddress)
}
func (root *Root) SentRepresentingEmailAddress() (string, error) {
	return root.str(PidTagSentRepresentingEmailAddress)
}

// TransportMessageHeaders returns the raw internet header block
// (SPEC_FULL.md §7 supplemented feature).
func (root *Root) TransportMessageHeaders() (string, error) {
	return root.str(PidTagTransportMessageHeaders)
}

func (root *Root) Subject() (string, error)        { return root.str(PidTagSubject) }
func (root *Root) BodyContentID() (string, error)  { return root.str(PidTagBodyContentId) }
func (root *Root) BodyText() (string, error)        { return root.str(PidTagBody) }

// BodyHTML returns the PidTagBodyHtml substream if present, otherwise
// falls back to the decompressed RTF byte stream verbatim — not an
// HTML-tag-stripped rendering, since that post-processing step is out
// of this module's scope (spec §1, SPEC_FULL.md §8 decision 5).
func (root *Root) BodyHTML() (string, error) {
	b, err := root.stream(PidTagBodyHtml, PtypString)
	if err != nil {
		return "", err
	}
	if b != nil {
		return decodeString(b), nil
	}
	rtfBody, err := root.BodyRTF()
	if err != nil {
		return "", err
	}
	if rtfBody == nil {
		return "", nil
	}
	return string(rtfBody), nil
}

// BodyRTF returns the decompressed RTF body, or (nil, nil) if the
// compressed stream is absent or fails to decompress — the source
// swallows decompression failures and logs them rather than raising
// (mapi/msg/msg.py's MsgRoot._decompress); this module has no logging
// collaborator so it simply returns absent.
func (root *Root) BodyRTF() ([]byte, error) {
	b, err := root.stream(PidTagRtfCompressed, PtypBinary)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	out, err := rtf.Decompress(b)
	if err != nil {
		return nil, nil
	}
	return out, nil
}

func (root *Root) RtfInSync() (bool, error) {
	v, ok := root.props.boolean(PidTagRtfInSync)
	if !ok {
		return false, nil
	}
	return v, nil
}

func (root *Root) HasAttachments() (bool, error) {
	v, ok := root.props.boolean(PidTagHasAttachments)
	if !ok {
		return false, nil
	}
	return v, nil
}

func (root *Root) NumRecipients() uint32 {
	n, _ := root.props.numRecipients()
	return n
}

func (root *Root) NumAttachments() uint32 {
	n, _ := root.props.numAttachments()
	return n
}

func (root *Root) MessageDeliveryTime() (time.Time, bool) {
	return root.filetime(PidTagMessageDeliveryTime)
}

func (root *Root) MessageSubmitTime() (time.Time, bool) {
	return root.filetime(PidTagClientSubmitTime)
}

func (root *Root) MessageReceiptTime() (time.Time, bool) {
	return root.filetime(PidTagReceiptTime)
}

func (root *Root) filetime(tag uint16) (time.Time, bool) {
	v, ok := root.props.int64(tag, PtypTime)
	if !ok {
		return time.Time{}, false
	}
	return filetimeToUnix(v), true
}

// Recipient is one entry of the message's recipient list (spec §4.H).
type Recipient struct {
	*propStorage
}

func (rec *Recipient) DisplayName() (string, error) { return rec.str(PidTagRecipientDisplayName) }
func (rec *Recipient) SmtpAddress() (string, error)  { return rec.str(PidTagSmtpAddress) }
func (rec *Recipient) EmailAddress() (string, error) { return rec.str(PidTagEmailAddress) }

// Attachment is one entry of the message's attachment list (spec
// §4.H).
type Attachment struct {
	*propStorage
}

func (a *Attachment) FileName() (string, error) { return a.str(PidTagAttachLongFilename) }
func (a *Attachment) Mime() (string, error)      { return a.str(PidTagAttachMimeTag) }
func (a *Attachment) ContentID() (string, error) { return a.str(PidTagAttachContentId) }

// Extension is a SPEC_FULL.md §7 supplemented accessor: present in
// mapi_tags.py but unused by the original pipeline otherwise.
func (a *Attachment) Extension() (string, error) { return a.str(PidTagAttachExtension) }

func (a *Attachment) Size() (int32, bool) {
	v, _, ok := a.props.integer32(PidTagAttachmentSize)
	return v, ok
}

func (a *Attachment) Number() (int32, bool) {
	v, _, ok := a.props.integer32(PidTagAttachNumber)
	return v, ok
}

func (a *Attachment) ObjectType() (int32, bool) {
	v, _, ok := a.props.integer32(PidTagObjectType)
	return v, ok
}

func (a *Attachment) AttachMethod() (int32, bool) {
	v, _, ok := a.props.integer32(PidTagAttachMethod)
	return v, ok
}

// Data returns the attachment's raw binary payload
// (PidTagAttachDataBinary), or nil if this attachment carries an
// embedded message instead (PidTagAttachDataObject).
func (a *Attachment) Data() ([]byte, error) {
	return a.stream(PidTagAttachDataBinary, PtypBinary)
}

// Embedded reports whether this attachment is a nested MSG, per the
// MIME-type rule in spec §4.H.
func (a *Attachment) Embedded() bool {
	mime, err := a.Mime()
	return err == nil && mime == mimeEmbeddedMessage
}

// GetEmbeddedAttachment returns the recursive message view over this
// attachment's PidTagAttachDataObject sub-storage, or (nil, nil) if
// the attachment carries no embedded object (spec §4.H).
func (a *Attachment) GetEmbeddedAttachment() (*Message, error) {
	sub := a.findEntry(PidTagAttachDataObject, PtypObject)
	if sub == nil {
		return nil, nil
	}
	// Each storage owns its own __nameid_version1.0 stream (spec §4.F,
	// §4.H); the embedded message must resolve its own, not inherit
	// the enclosing message's, so named is passed as nil rather than
	// a.named here.
	msg, err := newMessage(a.r, sub, KindEmbedded, nil)
	return msg, errors.Wrap(err, "mapi: open embedded message")
}

// Message is the top-level façade over a whole CFB message: its root
// properties plus its recipient and attachment lists, in directory
// order (spec §4.H). Embedded messages (recursed via
// Attachment.GetEmbeddedAttachment) share this same shape.
type Message struct {
	*Root
	Recipients  []*Recipient
	Attachments []*Attachment
}

// Open parses r as a top-level MAPI message rooted at the CFB root
// storage.
func Open(r *cfb.Reader) (*Message, error) {
	return newMessage(r, r.Root(), KindRoot, nil)
}

func newMessage(r *cfb.Reader, storage *cfb.DirectoryEntry, kind StorageKind, named *namedPropertyMap) (*Message, error) {
	if named == nil {
		var err error
		named, err = loadNamedProperties(r, storage)
		if err != nil {
			return nil, errors.Wrap(err, "mapi: load named-property map")
		}
	}

	root, err := newRoot(r, storage, kind, named)
	if err != nil {
		return nil, errors.Wrap(err, "mapi: open root storage")
	}

	var recipients []*Recipient
	for _, e := range r.Select(storage, StorageRecip) {
		ps, err := newPropStorage(r, e, KindRecipient, named)
		if err != nil {
			return nil, errors.Wrapf(err, "mapi: open recipient %q", e.Name)
		}
		recipients = append(recipients, &Recipient{propStorage: ps})
	}

	var attachments []*Attachment
	for _, e := range r.Select(storage, StorageAttach) {
		ps, err := newPropStorage(r, e, KindAttachment, named)
		if err != nil {
			return nil, errors.Wrapf(err, "mapi: open attachment %q", e.Name)
		}
		attachments = append(attachments, &Attachment{propStorage: ps})
	}

	return &Message{Root: root, Recipients: recipients, Attachments: attachments}, nil
}
