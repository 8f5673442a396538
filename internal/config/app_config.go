package config

import "time"

const (
	// Pagination
	DefaultPageLimit     = 20
	MaxPageLimit         = 100
	DefaultMessageLimit  = 50
	MaxMessageLimit      = 200
	DefaultLanguage      = "ko"
	FallbackLanguage     = "en"
	RefreshTokenType     = "refresh"
	AccessTokenType      = "access"
	TokenType            = "bearer"
	KakaoBreakerFailures = 5
	KakaoBreakerTimeout  = 30 * time.Second

	// Thumbnails are portrait 9:16 previews.
	ThumbnailWidth   = 720
	ThumbnailHeight  = 1280
	ThumbnailQuality = 85
	VideoFrameOffset = 1 * time.Second

	// Uploads larger than this are rejected.
	MaxUploadBytes = 100 << 20

	// Real-time channel
	WSWriteWait      = 10 * time.Second
	WSPongWait       = 60 * time.Second
	WSPingPeriod     = (WSPongWait * 9) / 10
	WSMaxMessageSize = 4096
	WSSendBuffer     = 256

	// Close code sent when the token on a websocket upgrade is rejected.
	WSCloseUnauthorized = 4001
)

// MediaExtensions maps each story media type to the file extensions accepted
// by the upload endpoint.
var MediaExtensions = map[string][]string{
	"video": {".mp4", ".avi", ".mov", ".wmv", ".mkv"},
	"image": {".jpg", ".jpeg", ".png", ".gif", ".webp"},
	"pdf":   {".pdf"},
	"audio": {".mp3", ".wav", ".ogg"},
}

// ReportReasonWeights scores each report reason for automatic hiding.
// Unknown reasons count as 1.
var ReportReasonWeights = map[string]int{
	"spam":          1,
	"inappropriate": 2,
	"copyright":     2,
	"violence":      3,
	"hate":          3,
}

// CityAliases maps the short city names used by clients to the official
// names stored in the regions table.
var CityAliases = map[string]string{
	"서울": "서울특별시",
	"부산": "부산광역시",
	"제주": "제주특별자치도",
	"인천": "인천광역시",
	"대구": "대구광역시",
	"대전": "대전광역시",
	"광주": "광주광역시",
	"울산": "울산광역시",
	"세종": "세종특별자치시",
}
