package mapi

// Property types (Ptype…), the second half of a substream name and
// the ptype field of a property record (spec §3, §4.G).
const (
	PtypInteger16 uint16 = 0x0002
	PtypInteger32 uint16 = 0x0003
	PtypFloat     uint16 = 0x0004
	PtypDouble    uint16 = 0x0005
	PtypCurrency  uint16 = 0x0006
	PtypBoolean   uint16 = 0x000B
	PtypObject    uint16 = 0x000D
	PtypInteger64 uint16 = 0x0014
	PtypString8   uint16 = 0x001E
	PtypString    uint16 = 0x001F
	PtypTime      uint16 = 0x0040
	PtypGuid      uint16 = 0x0048
	PtypBinary    uint16 = 0x0102
)

// PidTag… property tags used by the message façade (spec §4.H, §6 and
// the SUPPLEMENTED FEATURES of SPEC_FULL.md §7).
const (
	PidTagNameidStreamGuid   uint16 = 0x0002
	PidTagNameidStreamEntry  uint16 = 0x0003
	PidTagNameidStreamString uint16 = 0x0004

	PidTagReceiptTime                  uint16 = 0x002A
	PidTagSentRepresentingName         uint16 = 0x0042
	PidTagOriginalSenderName           uint16 = 0x005A
	PidTagSentRepresentingEmailAddress uint16 = 0x0065
	PidTagTransportMessageHeaders      uint16 = 0x007D
	PidTagDisplayBcc                   uint16 = 0x0E02
	PidTagDisplayCc                    uint16 = 0x0E03
	PidTagDisplayTo                    uint16 = 0x0E04
	PidTagMessageDeliveryTime          uint16 = 0x0E06
	PidTagAttachmentSize               uint16 = 0x0E20
	PidTagAttachNumber                 uint16 = 0x0E21
	PidTagHasAttachments               uint16 = 0x0E1B
	PidTagRtfInSync                    uint16 = 0x0E1F
	PidTagObjectType                   uint16 = 0x0FFE
	PidTagMessageClass                 uint16 = 0x001A
	PidTagSubject                      uint16 = 0x0037
	PidTagClientSubmitTime             uint16 = 0x0039
	PidTagBody                         uint16 = 0x1000
	PidTagRtfCompressed                uint16 = 0x1009
	PidTagBodyHtml                     uint16 = 0x1013
	PidTagBodyContentId                uint16 = 0x1015
	PidTagInternetMessageId            uint16 = 0x1035

	PidTagSenderName                  uint16 = 0x0C1A
	PidTagSenderEmailAddress          uint16 = 0x0C1F
	PidTagSenderSmtpAddress           uint16 = 0x5D01
	PidTagSentRepresentingSmtpAddress uint16 = 0x5D02

	PidTagAttachDataBinary   uint16 = 0x3701
	PidTagAttachDataObject   uint16 = 0x3701
	PidTagAttachMethod       uint16 = 0x3705
	PidTagAttachExtension    uint16 = 0x3703
	PidTagAttachLongFilename uint16 = 0x3707
	PidTagAttachMimeTag      uint16 = 0x370E
	PidTagAttachContentId    uint16 = 0x3712

	PidTagSmtpAddress          uint16 = 0x39FE
	PidTagRecipientDisplayName uint16 = 0x5FF6
	PidTagEmailAddress         uint16 = 0x3003
)

// Fixed substream names that are not addressed by (tag, type) but are
// looked up directly, per spec §4.F/§4.H.
const (
	StorageNameid = "__nameid_version1.0"
	StorageRecip  = "__recip_version1.0"
	StorageAttach = "__attach_version1.0"
	StorageProps  = "__properties_version1.0"
	substgPrefix  = "__substg1.0_"
)

// MIME type that marks an attachment as an embedded MSG, per spec
// §4.H.
const mimeEmbeddedMessage = "message/rfc822"
