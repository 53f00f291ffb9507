package document

import (
	"math/rand"
	"strconv"

	"github.com/zeebo/xxh3"
)

var samplePosts = [...]string{
	"今日はいい天気ですね！🌞",
	"最近ハマっている本があります📚",
	"#今日のランチはカレーライス🍛",
	"週末に映画を見ました🎬",
	"コーヒーが美味しい朝☕",
	"新しいプロジェクトが始まりました💼",
	"最近運動不足なので、ジョギングを始めました🏃‍♂️",
	"この曲、最高です🎧 #音楽",
	"今日の仕事も頑張ります💪",
	"久しぶりに友達と会いました👫",
	"#DIY 初挑戦！家具を作りました🔨",
	"おすすめのアプリありますか？📱",
	"新しいカフェを見つけました☕ #カフェ巡り",
	"今日は家でのんびり過ごします🏡",
	"誕生日おめでとう！🎉 #誕生日",
	"新しいゲームにハマっています🎮",
	"#写真を撮りました 景色が綺麗です📸",
	"今日の予定は何もない…😴",
	"最近読んだ記事が面白かったです📰",
	"おすすめのレシピを教えてください！🍳",
	"#映画鑑賞 感動しました😢",
	"今日の朝ごはんはパンケーキでした🥞",
	"早く週末が来て欲しい…😅",
	"新しい靴を買いました👟 #ファッション",
	"今日は仕事が捗りました✌️",
	"旅行の計画を立てています✈️ #旅行",
	"ペットが可愛すぎる🐶 #癒し",
	"新しい趣味を始めました🎨 #趣味",
	"今日は健康診断に行ってきました🏥",
	"一日中雨でした…☔ #雨の日",
}

// SamplePosts returns a copy of the message body pool.
func SamplePosts() []string {
	return append([]string(nil), samplePosts[:]...)
}

// Sampler picks message bodies uniformly from the pool. Not safe for concurrent use.
type Sampler struct {
	rnd *rand.Rand
}

func NewSampler(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

func (s *Sampler) Post() string {
	return samplePosts[s.rnd.Intn(len(samplePosts))]
}

// SeedFor derives a sampler seed for the seq-th actor run on slot vu.
func SeedFor(runSeed int64, vu int, seq int64) int64 {
	key := strconv.FormatInt(runSeed, 10) + ":" + strconv.Itoa(vu) + ":" + strconv.FormatInt(seq, 10)
	return int64(xxh3.HashString(key))
}
