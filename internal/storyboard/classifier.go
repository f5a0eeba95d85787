// internal/storyboard/classifier.go
package storyboard

import (
	"regexp"
	"strings"

	"github.com/Corphon/StoryboardMCP/internal/models"
)

var wordPattern = regexp.MustCompile(`[\p{L}']+`)

// 对白标记：引号或转述动词
var (
	quoteMarks = []string{"\"", "“", "”", "「", "」", "『", "』"}

	speechVerbs = map[string]bool{
		"said": true, "says": true, "asked": true, "asks": true,
		"replied": true, "replies": true, "whispered": true, "shouted": true,
		"told": true, "answered": true, "exclaimed": true, "muttered": true,
		"yelled": true,
	}

	actionVerbs = map[string]bool{
		"run": true, "runs": true, "running": true, "ran": true,
		"fight": true, "fights": true, "fighting": true, "fought": true,
		"jump": true, "jumps": true, "jumped": true,
		"chase": true, "chases": true, "chased": true,
		"attack": true, "attacks": true, "attacked": true,
		"grab": true, "grabs": true, "grabbed": true,
		"throw": true, "throws": true, "threw": true,
		"punch": true, "punches": true, "punched": true,
		"kick": true, "kicks": true, "kicked": true,
		"escape": true, "escapes": true, "escaped": true,
		"crash": true, "crashes": true, "crashed": true,
		"explode": true, "explodes": true, "exploded": true,
		"rush": true, "rushes": true, "rushed": true,
		"dash": true, "dashes": true, "dashed": true,
		"strike": true, "strikes": true, "struck": true,
		"race": true, "races": true, "raced": true,
	}
)

// emotionLexicon 情绪词表，顺序决定主导情绪的选择
var emotionLexicon = []string{
	"love", "hate", "fear", "anger", "angry", "sad", "cry", "tears",
	"joy", "happy", "grief", "despair", "rage", "scream", "heartbreak",
	"afraid", "lonely", "hope", "guilt", "shame",
}

// ClassifyScene 根据正文关键词和出场人数推断场景类型
func ClassifyScene(heading, content string, participants int) models.SceneClassification {
	text := heading + "\n" + content
	tokens := tokenize(text)

	result := models.SceneClassification{
		HasDialogue: hasDialogue(content, tokens, participants),
		HasAction:   hasAny(tokens, actionVerbs),
	}

	matched := 0
	for _, word := range emotionLexicon {
		if tokens[word] {
			matched++
			if result.DominantEmotion == "" {
				result.DominantEmotion = word
			}
		}
	}
	result.EmotionalIntensity = float64(matched) / float64(len(emotionLexicon))

	switch {
	case result.EmotionalIntensity > 0.3:
		result.SceneType = models.SceneEmotional
	case result.HasAction && !result.HasDialogue:
		result.SceneType = models.SceneAction
	case !result.HasDialogue && !result.HasAction:
		result.SceneType = models.SceneEstablishing
	default:
		result.SceneType = models.SceneDialogue
	}

	result.NeedsClosingShot = result.HasAction || result.EmotionalIntensity > 0.5
	return result
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[strings.Trim(w, "'")] = true
	}
	return tokens
}

// 引号总是算作对白；转述动词需要场上至少有一个角色
func hasDialogue(content string, tokens map[string]bool, participants int) bool {
	for _, q := range quoteMarks {
		if strings.Contains(content, q) {
			return true
		}
	}
	return participants > 0 && hasAny(tokens, speechVerbs)
}

func hasAny(tokens map[string]bool, lexicon map[string]bool) bool {
	for t := range tokens {
		if lexicon[t] {
			return true
		}
	}
	return false
}
