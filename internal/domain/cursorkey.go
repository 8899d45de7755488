package domain

import "strconv"

func formatCursorKey(scIndex, logType uint32) string {
	return strconv.FormatUint(uint64(scIndex), 10) + ":" + strconv.FormatUint(uint64(logType), 10)
}
