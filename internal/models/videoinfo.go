package models

// VideoInfo models the fields the core reads from an extraction-tool
// info-JSON document. The same shape covers video and channel documents;
// channel documents simply leave the per-video fields blank.
type VideoInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Channel     string      `json:"channel"`
	ChannelID   string      `json:"channel_id"`
	Uploader    string      `json:"uploader"`
	UploadDate  string      `json:"upload_date"` // YYYYMMDD
	Duration    float64     `json:"duration"`    // seconds
	Language    string      `json:"language"`    // ISO-639-1
	Categories  []string    `json:"categories"`
	Tags        []string    `json:"tags"`
	Thumbnail   string      `json:"thumbnail"`
	Thumbnails  []Thumbnail `json:"thumbnails"`
	Ext         string      `json:"ext"`
}

// Thumbnail is one entry of an info-JSON thumbnails array.
type Thumbnail struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Preference int    `json:"preference"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// DurationSeconds returns the duration as whole seconds.
func (v *VideoInfo) DurationSeconds() int {
	return int(v.Duration)
}

// PlaylistEntry is one item of a flat-playlist listing.
type PlaylistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Playlist is the top-level flat-playlist document.
type Playlist struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	Entries []PlaylistEntry `json:"entries"`
}
