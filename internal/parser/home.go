package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"SteamCNReader/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// userLinkPrefixLen は、ユーザーリンク "suid-459867" のうちUIDより前の文字数です。
const userLinkPrefixLen = len("suid-")

var leadingDigits = regexp.MustCompile(`^\d+`)

type itemParser func(p *Parser, item *goquery.Selection) (model.ThreadMeta, error)

// homeSection は、トップページの1セクションの位置と項目の解析方法です。
type homeSection struct {
	name      string
	container string
	parse     itemParser
}

var homeSections = []homeSection{
	{name: "banner", container: ".slideshow", parse: (*Parser).parseBannerItem},
	{name: "index", container: "#portal_block_432_content", parse: (*Parser).parseListItem},
	{name: "new", container: "#portal_block_433_content", parse: (*Parser).parseListItem},
	{name: "hot", container: "#portal_block_434_content", parse: (*Parser).parseListItem},
}

// ParseHome は、トップページのHTMLを解析して4セクション分のスレッド一覧を返します。
// いずれかの項目が解析できなければ、呼び出し全体がエラーになります。
func (p *Parser) ParseHome(html string) (*model.HomeLists, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	lists := make([][]model.ThreadMeta, len(homeSections))
	for i, section := range homeSections {
		list, err := p.parseSection(doc, section)
		if err != nil {
			return nil, err
		}
		lists[i] = list
	}

	return &model.HomeLists{
		Banner: lists[0],
		Index:  lists[1],
		New:    lists[2],
		Hot:    lists[3],
	}, nil
}

func (p *Parser) parseSection(doc *goquery.Document, section homeSection) ([]model.ThreadMeta, error) {
	container := doc.Find(section.container)
	if container.Length() == 0 {
		return nil, fmt.Errorf("%sセクション: %w", section.name, missing(section.container))
	}

	items := container.Find("li")
	list := make([]model.ThreadMeta, 0, items.Length())
	for i := range items.Nodes {
		meta, err := section.parse(p, items.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("%sセクションの%d番目の項目: %w", section.name, i, err)
		}
		list = append(list, meta)
	}
	return list, nil
}

// parseBannerItem は、スライドショーの項目を解析します。
//
//	<li>
//	  <a href="t476291-1-1"><img src="..." title="板块: ...&#10;作者: ...&#10;浏览: 0 / 回复: 0&#10;..."></a>
//	  <span class="title">タイトル</span>
//	</li>
func (p *Parser) parseBannerItem(item *goquery.Selection) (model.ThreadMeta, error) {
	var meta model.ThreadMeta

	caption := item.Find("span").First()
	if caption.Length() == 0 {
		return meta, missing("span (タイトル)")
	}
	img := item.Find("img").First()
	image, err := requireAttr(img, "src", "img")
	if err != nil {
		return meta, err
	}
	imgTitle, err := requireAttr(img, "title", "img")
	if err != nil {
		return meta, err
	}
	href, err := requireAttr(item.Find("a"), "href", "a")
	if err != nil {
		return meta, err
	}
	tid, err := ParseTID(href)
	if err != nil {
		return meta, err
	}
	tt, err := parseTooltip(imgTitle, true)
	if err != nil {
		return meta, err
	}

	return model.ThreadMeta{
		Title:    strings.TrimSpace(caption.Text()),
		TID:      tid,
		URL:      p.ThreadURL(href),
		Image:    image,
		Section:  tt.Section,
		PostTime: tt.Date,
		Author:   model.Author{Username: tt.Username},
		Stats:    model.Stats{Viewed: tt.Viewed, Replied: tt.Replied},
	}, nil
}

// parseListItem は、注目・最新・人気セクション共通の項目を解析します。
//
//	<li>
//	  <em><a href="suid-459867">k15</a></em>
//	  <a href="t476291-1-1" title="板块: ...">タイトル</a>
//	</li>
func (p *Parser) parseListItem(item *goquery.Selection) (model.ThreadMeta, error) {
	var meta model.ThreadMeta

	userLink := item.Find("em a").First()
	userHref, err := requireAttr(userLink, "href", "em a (ユーザーリンク)")
	if err != nil {
		return meta, err
	}
	uid, err := parseUserLinkUID(userHref)
	if err != nil {
		return meta, err
	}

	anchors := item.Find("a")
	if anchors.Length() < 2 {
		return meta, missing("スレッドリンク (2番目の a)")
	}
	threadLink := anchors.Eq(1)
	href, err := requireAttr(threadLink, "href", "スレッドリンク")
	if err != nil {
		return meta, err
	}
	tid, err := ParseTID(href)
	if err != nil {
		return meta, err
	}
	linkTitle, err := requireAttr(threadLink, "title", "スレッドリンク")
	if err != nil {
		return meta, err
	}
	tt, err := parseTooltip(linkTitle, false)
	if err != nil {
		return meta, err
	}

	return model.ThreadMeta{
		Title:    strings.TrimSpace(threadLink.Text()),
		TID:      tid,
		URL:      p.ThreadURL(href),
		Section:  tt.Section,
		PostTime: tt.Date,
		Author: model.Author{
			Username: strings.TrimSpace(userLink.Text()),
			UID:      uid,
			Avatar:   p.AvatarURL(uid, avatarSmall),
		},
		Stats: model.Stats{Viewed: tt.Viewed, Replied: tt.Replied},
	}, nil
}

func parseUserLinkUID(href string) (int, error) {
	if len(href) <= userLinkPrefixLen {
		return 0, fmt.Errorf("ユーザーリンクが短すぎます (href=%q): %w", href, ErrPatternMismatch)
	}
	digits := leadingDigits.FindString(href[userLinkPrefixLen:])
	uid, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("UIDを解析できません (href=%q): %w", href, ErrPatternMismatch)
	}
	return uid, nil
}
