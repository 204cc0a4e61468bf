package domain

import "strconv"

// Resolution holds decoded pixel dimensions of a video.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String renders the resolution as "{width}×{height}".
func (r Resolution) String() string {
	return strconv.Itoa(r.Width) + "×" + strconv.Itoa(r.Height)
}
