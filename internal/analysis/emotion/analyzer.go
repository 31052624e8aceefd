package emotion

import "strings"

// Label 表示从用户消息中识别出的情绪。
type Label string

const (
	Neutral      Label = "neutral"
	Tired        Label = "tired"
	Annoyed      Label = "annoyed"
	Sad          Label = "sad"
	Angry        Label = "angry"
	Anxious      Label = "anxious"
	Frustrated   Label = "frustrated"
	Disappointed Label = "disappointed"
	Stressed     Label = "stressed"
	Lonely       Label = "lonely"
	Confused     Label = "confused"
)

// bucket 将一个情绪与其关键词绑定。
type bucket struct {
	label    Label
	keywords []string
}

// keywordTable 的顺序即匹配优先级，命中第一个即返回。
var keywordTable = []bucket{
	{Tired, []string{"累", "疲惫", "疲劳", "精疲力尽", "疲倦"}},
	{Annoyed, []string{"烦", "烦躁", "烦恼", "烦闷", "心烦"}},
	{Sad, []string{"难过", "伤心", "悲伤", "沮丧", "失落", "郁闷"}},
	{Angry, []string{"生气", "愤怒", "气愤", "恼火", "火大"}},
	{Anxious, []string{"焦虑", "担心", "害怕", "紧张", "不安"}},
	{Frustrated, []string{"挫败", "受挫", "无力", "无助", "绝望"}},
	{Disappointed, []string{"失望", "遗憾", "可惜"}},
	{Stressed, []string{"压力", "压抑", "喘不过气"}},
	{Lonely, []string{"孤独", "寂寞", "孤单", "独自"}},
	{Confused, []string{"迷茫", "困惑", "不知所措"}},
}

// Detect 按固定顺序扫描关键词表，返回第一个命中的情绪，未命中时返回 Neutral。
// 结果仅作为元数据，不会影响提示词内容。
func Detect(message string) Label {
	if message == "" {
		return Neutral
	}
	for _, b := range keywordTable {
		for _, word := range b.keywords {
			if strings.Contains(message, word) {
				return b.label
			}
		}
	}
	return Neutral
}

// Labels 返回参与匹配的情绪，顺序与匹配优先级一致。
func Labels() []Label {
	out := make([]Label, 0, len(keywordTable))
	for _, b := range keywordTable {
		out = append(out, b.label)
	}
	return out
}
