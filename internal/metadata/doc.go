// Package metadata reads song titles and tempos from audio file tags.
//
// ID3 tags carry the tempo in TBPM (TBP for ID3v2.2), MP4 in tmpo and Vorbis comments in BPM.
// Files without readable tags fall back to the file name: "Artist - Title (128 BPM).mp3" yields
// the title "Title" at 128 BPM.
package metadata
