// internal/storyboard/setting.go
package storyboard

import (
	"regexp"
	"strings"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

const (
	defaultLocation   = "Unknown"
	defaultTimeOfDay  = "morning"
	defaultAtmosphere = "neutral"
	defaultLighting   = "natural light"
)

// 场景标题前缀：INT. / EXT. / INT./EXT. / I/E.
var headingPrefix = regexp.MustCompile(`(?i)^(INT\./EXT\.|EXT\./INT\.|INT/EXT\.?|I/E\.?|INT\.|EXT\.|INT|EXT)\s+`)

// 地点与时间之间的分隔符
var headingSeparators = []string{" - ", " – ", " — "}

// 时间段同义词归一
var timeAliases = map[string]string{
	"dawn": "dawn", "sunrise": "dawn", "daybreak": "dawn",
	"morning": "morning",
	"day":     "day", "noon": "day", "midday": "day", "daytime": "day",
	"afternoon": "afternoon",
	"evening":   "evening", "sunset": "evening",
	"dusk": "dusk", "twilight": "dusk",
	"night": "night", "midnight": "night",
}

// 沿用上一场景时间的标记
var continuityMarkers = map[string]bool{
	"continuous": true, "later": true, "same": true, "moments later": true, "same time": true,
}

// ParsedHeading 场景标题解析结果
type ParsedHeading struct {
	Interior  bool
	Exterior  bool
	Location  string
	TimeOfDay string // 原始时间字段（小写）
}

// ParseHeading 解析 "INT. KITCHEN - NIGHT" 形式的场景标题
func ParseHeading(heading string) ParsedHeading {
	var parsed ParsedHeading
	rest := strings.TrimSpace(heading)

	if m := headingPrefix.FindStringSubmatch(rest); m != nil {
		prefix := strings.ToUpper(m[1])
		switch {
		case strings.Contains(prefix, "/"):
			parsed.Interior, parsed.Exterior = true, true
		case strings.HasPrefix(prefix, "INT"):
			parsed.Interior = true
		default:
			parsed.Exterior = true
		}
		rest = rest[len(m[0]):]
	}

	// 时间取最后一个分隔符之后的部分，地点可以包含分隔符
	cut := -1
	sepLen := 0
	for _, sep := range headingSeparators {
		if i := strings.LastIndex(rest, sep); i > cut {
			cut, sepLen = i, len(sep)
		}
	}
	if cut >= 0 {
		parsed.TimeOfDay = strings.ToLower(strings.TrimSpace(rest[cut+sepLen:]))
		rest = rest[:cut]
	}
	parsed.Location = strings.TrimSpace(rest)
	return parsed
}

// ResolveSetting 生成场景的设定快照。
// 场景地点标签优先于标题地点；CONTINUOUS/LATER 沿用上一场景的时间。
func ResolveSetting(scene *models.ScreenplayScene, previous *models.Setting) models.Setting {
	parsed := ParseHeading(scene.Heading)

	location := strings.TrimSpace(scene.Setting)
	if location == "" {
		location = parsed.Location
	}
	if location == "" {
		location = defaultLocation
	}

	timeOfDay := normalizeTime(parsed.TimeOfDay)
	if timeOfDay == "" && continuityMarkers[parsed.TimeOfDay] && previous != nil {
		timeOfDay = previous.TimeOfDay
	}
	if timeOfDay == "" {
		timeOfDay = defaultTimeOfDay
	}

	atmosphere := strings.TrimSpace(scene.Atmosphere)
	if atmosphere == "" {
		atmosphere = defaultAtmosphere
	}

	return models.Setting{
		Location:   location,
		TimeOfDay:  timeOfDay,
		Lighting:   lightingFor(timeOfDay, parsed.Interior && !parsed.Exterior),
		Atmosphere: atmosphere,
	}
}

func normalizeTime(raw string) string {
	if raw == "" {
		return ""
	}
	if t, ok := timeAliases[raw]; ok {
		return t
	}
	// "EARLY MORNING"、"LATE NIGHT" 之类取最后一个可识别的词
	words := strings.Fields(raw)
	for i := len(words) - 1; i >= 0; i-- {
		if t, ok := timeAliases[words[i]]; ok {
			return t
		}
	}
	return ""
}

func lightingFor(timeOfDay string, interior bool) string {
	lighting, ok := timeLighting[timeOfDay]
	if !ok {
		lighting = defaultLighting
	}
	if interior && (timeOfDay == "night" || timeOfDay == "evening") {
		lighting += " with warm practical lamps"
	}
	return lighting
}
