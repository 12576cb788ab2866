package manifest

import (
	"fmt"
	"time"

	"github.com/tacogips/addonsync/internal/model"
)

// TimeLayout renders "Last Updated" values, e.g. 01/15/2027 08:00 AM.
const TimeLayout = "01/02/2006 03:04 PM"

// FormatTime renders an epoch in loc. A nil epoch renders as "".
func FormatTime(epoch *int64, loc *time.Location) string {
	if epoch == nil {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(*epoch, 0).In(loc).Format(TimeLayout)
}

// RenderHeader renders the comment line that opens a collection block.
func RenderHeader(title string) string {
	return "-- " + title + "\n"
}

// RenderLine renders the load directive for one item.
func RenderLine(item model.ItemMetadata, loc *time.Location) string {
	return fmt.Sprintf("resource.AddWorkshop(\"%s\") -- %s -- Last Updated: %s\n",
		item.ID, item.Title, FormatTime(item.TimeUpdated, loc))
}
