package adapter

import (
	"fmt"
	"sort"

	"SteamCNReader/internal/config"
)

// adapterRegistry は、アダプタ名とSiteAdapter実装のマッピングを保持します。
var adapterRegistry = map[string]func(config.SiteSettings) (SiteAdapter, error){
	"steamcn": NewSteamCNAdapter,
}

// GetAdapter は、指定されたアダプタ名に対応するSiteAdapterの新しいインスタンスを返します。
func GetAdapter(name string, site config.SiteSettings) (SiteAdapter, error) {
	factory, ok := adapterRegistry[name]
	if !ok {
		return nil, fmt.Errorf("アダプタ名 '%s' に対応するアダプタが見つかりません (利用可能: %v)", name, Names())
	}
	return factory(site)
}

// Names は、登録済みのアダプタ名を昇順で返します。
func Names() []string {
	names := make([]string, 0, len(adapterRegistry))
	for name := range adapterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
