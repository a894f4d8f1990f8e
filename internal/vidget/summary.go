package vidget

import "mediakit/internal/services/ytdlp"

// Summary is the metadata printed by --json. Missing values encode as null.
// The playlist keys appear only for playlists.
type Summary struct {
	Title      *string  `json:"title"`
	Duration   *float64 `json:"duration"`
	Uploader   *string  `json:"uploader"`
	ViewCount  *int64   `json:"view_count"`
	UploadDate *string  `json:"upload_date"`
	Thumbnail  *string  `json:"thumbnail"`
	WebpageURL *string  `json:"webpage_url"`
	*Playlist
}

// Playlist holds the playlist keys of a Summary. An untitled playlist keeps
// its playlist_title key as null.
type Playlist struct {
	PlaylistCount int     `json:"playlist_count"`
	PlaylistTitle *string `json:"playlist_title"`
}

// Summarize shapes extracted info into a Summary. Playlist is set only when
// the info has entries.
func Summarize(info *ytdlp.Info) Summary {
	if info == nil {
		return Summary{}
	}
	s := Summary{
		Title:      info.Title,
		Duration:   info.Duration,
		Uploader:   info.Uploader,
		ViewCount:  info.ViewCount,
		UploadDate: info.UploadDate,
		Thumbnail:  info.Thumbnail,
		WebpageURL: info.WebpageURL,
	}
	if info.HasEntries() {
		s.Playlist = &Playlist{
			PlaylistCount: len(info.Entries),
			PlaylistTitle: info.Title,
		}
	}
	return s
}

// DisplayTitle returns the title, or "Unknown" when it is missing.
func DisplayTitle(info *ytdlp.Info) string {
	if info == nil || info.Title == nil || *info.Title == "" {
		return "Unknown"
	}
	return *info.Title
}
