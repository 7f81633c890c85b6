package sync

import (
	"strings"

	"feedbackpipe/internal/domain"
)

// The row layout is a compatibility contract with the external store: 26
// columns, A through Z, in this exact order. Do not reorder.
const (
	ColID    = 1  // A
	ColTitle = 2  // B
	NumCols  = 26 // A..Z
)

// FormatRow maps a feedback item onto the versioned column layout.
func FormatRow(item domain.FeedbackItem) []string {
	title := item.Title
	if len(title) > domain.MaxTitleLen {
		title = title[:domain.MaxTitleLen]
	}

	internal := "N"
	if item.Internal {
		internal = "Y"
	}

	firstAttendee := ""
	if len(item.Attendees) > 0 {
		firstAttendee = item.Attendees[0]
	}

	return []string{
		item.ID,                          // A: ID
		title,                            // B: Title
		item.Description,                 // C: Description
		item.Source,                      // D: Type/Source
		item.Status,                      // E: Status
		item.Priority,                    // F: Priority
		item.Product,                     // G: Product
		item.Category,                    // H: Category
		item.Segment,                     // I: Segment
		item.Department,                  // J: Department
		item.Segment,                     // K: Customer Segment (legacy duplicate)
		firstAttendee,                    // L: Company (first attendee)
		"",                               // M: Persona (manual entry)
		"",                               // N: Email (manual entry)
		internal,                         // O: Internal (Y/N)
		firstAttendee,                    // P: Contact (first attendee)
		item.CreatedDate,                 // Q: Created Date
		item.UpdatedDate,                 // R: Updated Date
		strings.Join(item.Attendees, ", "), // S: Attendees
		strings.Join(item.Tags, ", "),    // T: Tags
		item.MeetingType,                 // U: Meeting Type
		item.MeetingDate,                 // V: Meeting Date
		item.Source,                      // W: Source
		item.SourceURL,                   // X: Source URL
		item.UseCase,                     // Y: Insights/Use Case
		item.Quote,                       // Z: Quote
	}
}
