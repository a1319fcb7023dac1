package notes

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
)

type template struct {
	title       string
	description string
	kind        Kind
	liked       int64
	comments    int64
	collected   int64
}

// every template takes the keyword once in title and once in description
var templates = []template{
	{
		title:       "%s｜超详细攻略合集",
		description: "整理了关于%s的实用经验，收藏起来慢慢看。",
		kind:        KindNormal,
		liked:       3280,
		comments:    214,
		collected:   1560,
	},
	{
		title:       "第一次尝试%s，真实体验分享",
		description: "记录一下第一次接触%s的过程和感受，希望对你有帮助。",
		kind:        KindVideo,
		liked:       1920,
		comments:    98,
		collected:   640,
	},
	{
		title:       "%s避坑指南，新手必看",
		description: "这些关于%s的坑我都踩过了，大家一定要注意。",
		kind:        KindNormal,
		liked:       5460,
		comments:    387,
		collected:   2890,
	},
	{
		title:       "%s好物清单｜亲测推荐",
		description: "分享几样和%s相关、自己用了很久的好物。",
		kind:        KindNormal,
		liked:       860,
		comments:    45,
		collected:   310,
	},
	{
		title:       "一分钟了解%s",
		description: "用最短的时间带你看懂%s。",
		kind:        KindVideo,
		liked:       2410,
		comments:    156,
		collected:   720,
	},
}

var recencyLabels = []string{
	"刚刚",
	"10分钟前",
	"1小时前",
	"3小时前",
	"昨天",
	"2天前",
	"3天前",
	"5天前",
	"1周前",
	"2周前",
}

func recencyLabel(position int) string {
	if position < len(recencyLabels) {
		return recencyLabels[position]
	}
	return fmt.Sprintf("%d周前", position-len(recencyLabels)+3)
}

// keywordTag is an ascii stand-in for the keyword so synthetic ids stay url safe.
func keywordTag(keyword string) string {
	h := fnv.New32a()
	h.Write([]byte(keyword))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

type generated struct {
	note  CanonicalNote
	liked int64
}

// Generate returns exactly query.PageSize placeholder notes for the query. The output depends
// only on keyword, sort mode and page size.
func Generate(query SearchQuery) []CanonicalNote {
	if query.PageSize <= 0 {
		return []CanonicalNote{}
	}
	if query.PageSize > MaxPageSize {
		query.PageSize = MaxPageSize
	}

	tag := keywordTag(query.Keyword)
	out := make([]generated, 0, query.PageSize)
	for i := 0; i < query.PageSize; i++ {
		t := templates[i%len(templates)]
		cycle := i/len(templates) + 1
		n := i + 1

		title := fmt.Sprintf(t.title, query.Keyword)
		if cycle > 1 {
			title = fmt.Sprintf("%s (%d)", title, cycle)
		}
		// later cycles lose engagement so the likes ordering stays meaningful
		liked := t.liked / int64(cycle)
		id := fmt.Sprintf("demo_%s_%03d", tag, n)

		out = append(out, generated{
			liked: liked,
			note: CanonicalNote{
				ID:          id,
				Title:       title,
				Description: fmt.Sprintf(t.description, query.Keyword),
				Kind:        t.kind,
				Author: Author{
					Nickname: fmt.Sprintf("分享达人%d", n),
					UserID:   fmt.Sprintf("demo_user_%03d", n),
				},
				Engagement: Engagement{
					LikedCount:     strconv.FormatInt(liked, 10),
					CommentCount:   strconv.FormatInt(t.comments/int64(cycle), 10),
					CollectedCount: strconv.FormatInt(t.collected/int64(cycle), 10),
				},
				CoverURL:  PlaceholderCoverURL(query.Keyword, n),
				SourceURL: SourceURL(id),
			},
		})
	}

	switch query.SortMode {
	case SortLikes:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].liked > out[j].liked
		})
	case SortTime:
		for i := range out {
			out[i].note.Title = fmt.Sprintf("[%s] %s", recencyLabel(i), out[i].note.Title)
		}
	}

	notes := make([]CanonicalNote, len(out))
	for i, g := range out {
		notes[i] = g.note
	}
	return notes
}

// GenerateDetail returns a placeholder note standing in for itemID.
func GenerateDetail(itemID string) CanonicalNote {
	id := itemID
	if id == "" {
		id = defaultID
	}
	title := "示例笔记"
	return CanonicalNote{
		ID:          id,
		Title:       title,
		Description: "当前没有可用的登录会话，这是一条示例笔记。配置有效的Cookie后即可查看真实内容。",
		Kind:        KindNormal,
		Author: Author{
			Nickname: "示例用户",
			UserID:   "demo_user",
		},
		Engagement: Engagement{
			LikedCount:     defaultCount,
			CommentCount:   defaultCount,
			CollectedCount: defaultCount,
		},
		CoverURL:  PlaceholderCoverURL(title, 0),
		SourceURL: SourceURL(id),
	}
}
