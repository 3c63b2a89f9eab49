package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// UnwrapImageLinks は、子が img 要素1つだけの a 要素をその img で置き換え、
// a の href を img の src にします。投稿本文では a の href が原寸画像、img の src が
// 縮小画像を指しているため、置き換え後は原寸画像が表示されます。
// 置き換えた件数を返します。
func UnwrapImageLinks(sel *goquery.Selection) int {
	count := 0
	sel.Find("a").Each(func(_ int, link *goquery.Selection) {
		if !hasSoleImageChild(link.Get(0)) {
			return
		}
		img := link.Children().First()
		if href, ok := link.Attr("href"); ok {
			img.SetAttr("src", href)
		}
		link.ReplaceWithSelection(img)
		count++
	})
	return count
}

// hasSoleImageChild は、空白テキストとコメントを除いた子ノードが img 要素1つだけかを判定します。
func hasSoleImageChild(n *html.Node) bool {
	var found bool
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
		case html.CommentNode:
		case html.ElementNode:
			if found || c.Data != "img" {
				return false
			}
			found = true
		default:
			return false
		}
	}
	return found
}
