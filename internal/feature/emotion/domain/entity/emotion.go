// Package entity は感情分析のドメインモデルを定義します。
package entity

import (
	"strings"
	"time"
)

// Emotion は分類結果の感情ラベルです。
type Emotion string

const (
	EmotionAnger     Emotion = "Anger"
	EmotionDisgust   Emotion = "Disgust"
	EmotionFear      Emotion = "Fear"
	EmotionHappiness Emotion = "Happiness"
	EmotionSadness   Emotion = "Sadness"
	EmotionSurprise  Emotion = "Surprise"
	EmotionNeutral   Emotion = "Neutral"
)

// Emotions は分類可能な全ラベルです。
var Emotions = []Emotion{
	EmotionAnger, EmotionDisgust, EmotionFear, EmotionHappiness,
	EmotionSadness, EmotionSurprise, EmotionNeutral,
}

// ParseEmotion はモデルの出力をラベルに変換します。
// 大文字小文字と前後の空白・句読点は無視します。
func ParseEmotion(s string) (Emotion, bool) {
	s = strings.Trim(strings.TrimSpace(s), ".!\"'`*")
	for _, e := range Emotions {
		if strings.EqualFold(s, string(e)) {
			return e, true
		}
	}
	return "", false
}

// Analysis は1回の感情分析の記録です。画像本体も保存します。
type Analysis struct {
	ID          string
	UserID      uint
	Image       []byte
	ContentType string
	Emotion     Emotion
	CreatedAt   time.Time
}
