// internal/storyboard/tables.go
package storyboard

import (
	"github.com/Corphon/StoryboardMCP/internal/models"
)

// scaleOrder 景别从宽到紧的固定排序，用于计算景别跨度
var scaleOrder = map[models.ShotScale]int{
	models.ScaleExtremeWide:    0,
	models.ScaleWide:           1,
	models.ScaleMedium:         2,
	models.ScaleOverShoulder:   3,
	models.ScaleCloseUp:        4,
	models.ScaleExtremeCloseUp: 5,
}

// maxCharactersPerScale 每种景别可容纳的最大角色数
var maxCharactersPerScale = map[models.ShotScale]int{
	models.ScaleExtremeWide:    10,
	models.ScaleWide:           5,
	models.ScaleMedium:         3,
	models.ScaleCloseUp:        1,
	models.ScaleExtremeCloseUp: 1,
	models.ScaleOverShoulder:   2,
}

// MaxCharacters 返回景别的角色上限
func MaxCharacters(scale models.ShotScale) int {
	if n, ok := maxCharactersPerScale[scale]; ok {
		return n
	}
	return 1
}

type durationRange struct {
	Min, Max float64
}

// scaleDurations 每种景别的镜头时长范围（秒）
var scaleDurations = map[models.ShotScale]durationRange{
	models.ScaleExtremeWide:    {3.0, 6.0},
	models.ScaleWide:           {2.5, 5.0},
	models.ScaleMedium:         {2.0, 4.0},
	models.ScaleOverShoulder:   {2.0, 4.0},
	models.ScaleCloseUp:        {1.5, 3.0},
	models.ScaleExtremeCloseUp: {1.0, 2.0},
}

// sceneShotSequences 每种场景类型的内容镜头景别序列
var sceneShotSequences = map[models.SceneType][]models.ShotScale{
	models.SceneEstablishing: {models.ScaleWide, models.ScaleMedium},
	models.SceneDialogue: {
		models.ScaleMedium, models.ScaleOverShoulder, models.ScaleCloseUp,
		models.ScaleOverShoulder, models.ScaleCloseUp,
	},
	models.SceneAction:     {models.ScaleWide, models.ScaleMedium, models.ScaleCloseUp, models.ScaleWide},
	models.SceneEmotional:  {models.ScaleMedium, models.ScaleCloseUp, models.ScaleExtremeCloseUp},
	models.SceneTransition: {models.ScaleWide},
}

// TransitionBand 转场时长的允许范围和最佳值
type TransitionBand struct {
	Min     float64
	Optimal float64
	Max     float64
}

// transitionBands 选择器的默认时长即最佳值，校验器使用 [Min, Max]
var transitionBands = map[models.TransitionKind]TransitionBand{
	models.TransitionCut:      {0, 0, 0},
	models.TransitionFade:     {0.5, 1.0, 2.0},
	models.TransitionDissolve: {1.0, 1.5, 3.0},
	models.TransitionWipe:     {0.5, 0.8, 1.5},
	models.TransitionZoom:     {0.8, 1.2, 2.0},
	models.TransitionPan:      {1.0, 2.0, 3.0},
}

// BandFor 返回转场类型的时长范围，未知类型按切处理
func BandFor(kind models.TransitionKind) TransitionBand {
	if band, ok := transitionBands[kind]; ok {
		return band
	}
	return transitionBands[models.TransitionCut]
}

// DefaultDuration 返回转场类型的默认时长
func DefaultDuration(kind models.TransitionKind) float64 {
	return BandFor(kind).Optimal
}

// sceneBoundaryDuration 跨场景转场固定时长
const sceneBoundaryDuration = 1.0

// standardAngles 常规机位；其余视为戏剧性机位
var standardAngles = map[models.CameraAngle]bool{
	models.AngleEyeLevel: true,
}

// softerBeats 情绪场景中较宽景别使用的弱化节拍
var softerBeats = map[string]string{
	"despair": "grief",
	"grief":   "sad",
	"angry":   "tense",
	"fearful": "tense",
	"sad":     "wistful",
	"tense":   "calm",
	"joyful":  "hopeful",
	"tender":  "calm",
	"hopeful": "calm",
}

// beatIntensity 情绪节拍强度表
var beatIntensity = map[string]float64{
	"neutral": 0.0,
	"calm":    0.1,
	"hopeful": 0.3,
	"wistful": 0.3,
	"tender":  0.35,
	"joyful":  0.4,
	"tense":   0.5,
	"sad":     0.6,
	"fearful": 0.7,
	"angry":   0.8,
	"grief":   0.9,
	"despair": 1.0,
}

// BeatIntensity 返回情绪节拍强度，空节拍或未知节拍视为中性
func BeatIntensity(beat string) float64 {
	return beatIntensity[beat]
}

// emotionBeats 情绪词 -> 情绪节拍
var emotionBeats = map[string]string{
	"love": "tender", "hate": "angry", "fear": "fearful", "anger": "angry",
	"angry": "angry", "sad": "sad", "cry": "sad", "tears": "sad",
	"joy": "joyful", "happy": "joyful", "grief": "grief", "despair": "despair",
	"rage": "angry", "scream": "fearful", "heartbreak": "grief", "afraid": "fearful",
	"lonely": "sad", "hope": "hopeful", "guilt": "sad", "shame": "sad",
}

// beatExpressions 情绪节拍 -> 角色表情
var beatExpressions = map[string]string{
	"neutral": "composed",
	"calm":    "relaxed",
	"hopeful": "quietly hopeful",
	"wistful": "wistful, distant gaze",
	"tender":  "warm, softened gaze",
	"joyful":  "bright smile",
	"tense":   "alert, jaw set",
	"sad":     "downcast eyes",
	"fearful": "wide-eyed, fearful",
	"angry":   "furrowed brow, glaring",
	"grief":   "tear-streaked, grieving",
	"despair": "hollow, despairing stare",
}

// timeLighting 时间段 -> 光线描述
var timeLighting = map[string]string{
	"dawn":      "pale dawn light",
	"morning":   "soft morning light",
	"day":       "bright natural daylight",
	"afternoon": "warm afternoon light",
	"evening":   "golden hour glow",
	"dusk":      "fading dusk light",
	"night":     "low-key moonlight",
}
