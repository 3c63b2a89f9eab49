package adapter

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"

	"SteamCNReader/internal/config"
	"SteamCNReader/internal/model"
	"SteamCNReader/internal/network"
	"SteamCNReader/internal/parser"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// threadPath はDiscuzのモバイル版スレッド表示のパスです。
const threadPath = "/forum.php?mod=viewthread&tid=%d&page=%d&mobile=2"

// SteamCNAdapter は、SteamCN (Discuz! X) 固有の処理を実装します。
type SteamCNAdapter struct {
	parser   *parser.Parser
	encoding encoding.Encoding
	charset  string
	cookies  map[string]string
}

// NewSteamCNAdapter は、サイト設定からSteamCNAdapterを生成します。
// 文字コード名が不明な場合はエラーになります。
func NewSteamCNAdapter(site config.SiteSettings) (SiteAdapter, error) {
	charset := site.Charset
	if charset == "" {
		charset = config.DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("文字コード '%s' はサポートされていません: %w", charset, err)
	}
	return &SteamCNAdapter{
		parser:   parser.New(site.BaseURL),
		encoding: enc,
		charset:  charset,
		cookies:  site.Cookies,
	}, nil
}

// Prepare は、設定されたCookieをベースURLのドメインに登録します。
func (a *SteamCNAdapter) Prepare(client *network.Client) error {
	names := make([]string, 0, len(a.cookies))
	for name := range a.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cookie := &http.Cookie{Name: name, Value: a.cookies[name], Path: "/"}
		if err := client.SetCookie(a.parser.BaseURL(), cookie); err != nil {
			return fmt.Errorf("Cookie '%s' の設定に失敗しました: %w", name, err)
		}
	}
	if len(names) > 0 {
		log.WithField("cookies", names).Debug("サイトCookieを設定しました")
	}
	return nil
}

// BuildHomeURL は、トップページのURLを返します。
func (a *SteamCNAdapter) BuildHomeURL() string {
	return a.parser.BaseURL() + "/"
}

// BuildThreadURL は、スレッドの指定ページのURLを返します。
func (a *SteamCNAdapter) BuildThreadURL(tid, page int) (string, error) {
	if tid <= 0 {
		return "", fmt.Errorf("スレッドID %d は正の整数である必要があります", tid)
	}
	if page < 1 {
		return "", fmt.Errorf("ページ番号 %d は1以上である必要があります", page)
	}
	return a.parser.BaseURL() + fmt.Sprintf(threadPath, tid, page), nil
}

// ParseHome は、トップページのHTMLをデコードして各リストを抽出します。
func (a *SteamCNAdapter) ParseHome(htmlBody []byte) (*model.HomeLists, error) {
	html, err := a.decode(htmlBody)
	if err != nil {
		return nil, err
	}
	return a.parser.ParseHome(html)
}

// ParseThread は、スレッドページのHTMLをデコードして本文と返信を抽出します。
func (a *SteamCNAdapter) ParseThread(htmlBody []byte) (*model.Thread, error) {
	html, err := a.decode(htmlBody)
	if err != nil {
		return nil, err
	}
	return a.parser.ParseThread(html)
}

func (a *SteamCNAdapter) decode(b []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(b), a.encoding.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%sからのデコードに失敗しました: %w", a.charset, err)
	}
	return string(decoded), nil
}
