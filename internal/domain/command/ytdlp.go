// Package command holds constant flags for the yt-dlp subprocess.
package command

// General
const (
	YTDLP             = "yt-dlp"
	Output            = "-o"
	Paths             = "-P"
	PrintJSON         = "-J"
	Print             = "--print"
	AfterMove         = "after_move:%(filepath)s"
	RestrictFilenames = "--windows-filenames"
	CookiePath        = "--cookies"
	MergeOutputFormat = "--merge-output-format"
	ConcurrentFrags   = "--concurrent-fragments"
	NoProgress        = "--no-progress"
)

// Flat-playlist listing
const (
	FlatPlaylist = "--flat-playlist"
	PlaylistEnd  = "--playlist-end"
	SkipDownload = "--skip-download"
)

// Sidecars
const (
	WriteInfoJSON     = "--write-info-json"
	WriteThumbnail    = "--write-thumbnail"
	EmbedThumbnail    = "--embed-thumbnail"
	ConvertThumbnails = "--convert-thumbnails"
	ThumbnailFormat   = "jpg"
	WriteSubs         = "--write-subs"
	SubLangs          = "--sub-langs"
)

// DefaultSubLangs excludes live-chat pseudo subtitles.
const DefaultSubLangs = "en.*,es.*,-live_chat"

// Output templating. Every path element of a video bears [id] so that the
// on-disk witness survives renames of any single file.
const (
	VideoDirTemplate  = "%(upload_date>%Y)s"
	VideoFileTemplate = "%(channel)s - %(upload_date)s - %(title).180B [%(id)s]"
)
