package views

import "motion-logger/models"

// Session file layout. One file per session:
//
//	StartTimeUTC,<ts>
//	time_since_start(s),sensor,x,y,z
//	<rows...>
//	EndTimeUTC,<ts>

const (
	StartTimeKey = "StartTimeUTC"
	EndTimeKey   = "EndTimeUTC"

	// FileExt is appended to the user-supplied session name.
	FileExt = ".csv"
)

// SampleColumns is the column header line, in order.
var SampleColumns = models.Sample{}.CSVHeader()
