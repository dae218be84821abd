// Package domain 定义领域模型和接口
package domain

import (
	"strings"
	"time"
)

// SecondsPerDay 一天的秒数，日序号 = unix 时间戳 / SecondsPerDay
const SecondsPerDay = 86400

// DayOf 返回时间所在的日序号（UTC 整除，不涉及时区）
func DayOf(t time.Time) uint64 {
	ts := t.Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts) / SecondsPerDay
}

// DayOfUnix 返回 unix 秒时间戳所在的日序号
func DayOfUnix(ts uint64) uint64 {
	return ts / SecondsPerDay
}

// DayStart 日序号对应那天 00:00:00 UTC
func DayStart(day uint64) time.Time {
	return time.Unix(int64(day*SecondsPerDay), 0).UTC()
}

// DiaryEntry 链上日记条目，(Owner, Day, Position) 唯一，写入后不可修改
type DiaryEntry struct {
	Owner       string
	Day         uint64
	Position    uint64
	Content     string
	ImageTag    string
	BlockNumber uint64
	TxHash      string
	CreatedAt   time.Time
}

// Mood 心情标签
type Mood string

const (
	MoodHappy Mood = "happy"
	MoodSad   Mood = "sad"
	MoodAngry Mood = "angry"
)

// MoodTagPrefix 心情在链上以图片标签 "emoji:<mood>" 存储
const MoodTagPrefix = "emoji:"

// StorageTagPrefix 上传到对象存储的图片以 "storage:<key>" 存储
const StorageTagPrefix = "storage:"

// Moods 所有可选心情
var Moods = []Mood{MoodHappy, MoodSad, MoodAngry}

func (m Mood) Valid() bool {
	for _, v := range Moods {
		if v == m {
			return true
		}
	}
	return false
}

// Tag 心情对应的链上图片标签
func (m Mood) Tag() string {
	if m == "" {
		return ""
	}
	return MoodTagPrefix + string(m)
}

// ImageTagKind 图片标签类型
type ImageTagKind string

const (
	ImageTagNone   ImageTagKind = "none"
	ImageTagMood   ImageTagKind = "mood"
	ImageTagStored ImageTagKind = "stored"
	ImageTagInline ImageTagKind = "inline"
)

// ImageTag 解码后的图片标签，仅用于展示
type ImageTag struct {
	Kind ImageTagKind `json:"kind"`
	Raw  string       `json:"raw,omitempty"`
	Mood Mood         `json:"mood,omitempty"`
	Key  string       `json:"key,omitempty"`
}

// ParseImageTag 解析链上图片标签
func ParseImageTag(tag string) ImageTag {
	switch {
	case tag == "":
		return ImageTag{Kind: ImageTagNone}
	case strings.HasPrefix(tag, MoodTagPrefix):
		return ImageTag{Kind: ImageTagMood, Raw: tag, Mood: Mood(strings.TrimPrefix(tag, MoodTagPrefix))}
	case strings.HasPrefix(tag, StorageTagPrefix):
		return ImageTag{Kind: ImageTagStored, Raw: tag, Key: strings.TrimPrefix(tag, StorageTagPrefix)}
	default:
		return ImageTag{Kind: ImageTagInline, Raw: tag}
	}
}

// DayEntries 某一天的条目，Contents 与 ImageTags 按下标对齐
type DayEntries struct {
	Day       uint64
	Contents  []string
	ImageTags []string
	Count     uint64
}
