package source

import (
	"time"

	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/parser"
	"github.com/srikandi-id/harvester/internal/types"
)

// anyHeadingLink matches the first link inside any h2-h4 heading.
const anyHeadingLink = ".//*[self::h2 or self::h3 or self::h4]//a"

// Detik searches detik.com.
func Detik() Site {
	return Site{
		Name:       types.SourceDetik,
		BaseURL:    "https://www.detik.com",
		SearchPath: "/search/searchall?query=%s&sortby=time&page=1",
		Timeout:    45 * time.Second,
		Containers: []string{"article", "div.media__text"},
		Title: []parser.Extractor{
			parser.Text("h3.media__title a"),
			parser.Text("h2.media__title a"),
			parser.Text(".media__title"),
			parser.Text("a"),
		},
		Link: []parser.Extractor{
			parser.Attr("h3.media__title a", "href"),
			parser.Attr("h2.media__title a", "href"),
			parser.Attr("a.media__link", "href"),
			parser.Attr("a", "href"),
		},
		Date: []parser.Extractor{
			parser.Attr("span.media__date span", "title"),
			parser.Text("span.media__date"),
			parser.Text("time"),
		},
		Summary: []parser.Extractor{
			parser.Text("p.media__desc"),
			parser.Text("p"),
		},
		Image: []parser.Extractor{
			parser.Image("div.media__image"),
			parser.Image(""),
		},
	}
}

// CNN searches cnnindonesia.com. Result cards wrap the whole teaser in a
// single link, so the headline usually sits inside the anchor.
func CNN() Site {
	return Site{
		Name:       types.SourceCNN,
		BaseURL:    "https://www.cnnindonesia.com",
		SearchPath: "/search/?query=%s",
		Timeout:    45 * time.Second,
		Containers: []string{"article"},
		Title: []parser.Extractor{
			parser.Text("a h2"),
			parser.Text("a"),
			parser.Text("h2"),
		},
		Link: []parser.Extractor{
			parser.Attr("a", "href"),
		},
		Date: []parser.Extractor{
			parser.Text("span.text-cnn_grey"),
			parser.Text("span.date"),
		},
		Summary: []parser.Extractor{
			parser.Text("p"),
		},
		Image: []parser.Extractor{
			parser.Image("a"),
			parser.Image(""),
		},
	}
}

// Kompas searches search.kompas.com.
func Kompas() Site {
	return Site{
		Name:       types.SourceKompas,
		BaseURL:    "https://search.kompas.com",
		SearchPath: "/search/?q=%s&sort=desc",
		Timeout:    45 * time.Second,
		Containers: []string{"div.article__list", "div.articleItem"},
		Title: []parser.Extractor{
			parser.Text("h3.article__title a"),
			parser.Text("h2.articleTitle"),
			parser.Text("h3 a"),
		},
		Link: []parser.Extractor{
			parser.Attr("h3.article__title a", "href"),
			parser.Attr("a.article-link", "href"),
			parser.Attr("a", "href"),
		},
		Date: []parser.Extractor{
			parser.Text("div.article__date"),
			parser.Text("div.articlePost-date"),
			parser.Text("time"),
		},
		Summary: []parser.Extractor{
			parser.Text("p.article__lead"),
			parser.Text("p"),
		},
		Image: []parser.Extractor{
			parser.Image("div.article__asset"),
			parser.Image("div.articleItem-img"),
			parser.Image(""),
		},
	}
}

// Tribun searches tribunnews.com. The site is slow; it gets a longer timeout.
func Tribun() Site {
	return Site{
		Name:       types.SourceTribun,
		BaseURL:    "https://www.tribunnews.com",
		SearchPath: "/search?q=%s",
		Timeout:    60 * time.Second,
		Containers: []string{"ul#lists > li", "div.lst-berita > li"},
		Title: []parser.Extractor{
			parser.Text("h3 a"),
			parser.XPathText(anyHeadingLink),
		},
		Link: []parser.Extractor{
			parser.Attr("h3 a", "href"),
			parser.XPathAttr(anyHeadingLink, "href"),
			parser.Attr("a", "href"),
		},
		Date: []parser.Extractor{
			parser.Text("time.grey"),
			parser.Text("time"),
			parser.Text("span.grey"),
		},
		Summary: []parser.Extractor{
			parser.Text("div.grey.sumari"),
			parser.Text("p"),
		},
		Image: []parser.Extractor{
			parser.Image("div.fr"),
			parser.Image("div.img-ovh"),
			parser.Image(""),
		},
	}
}

// Suara searches suara.com. Its date line reads "Kategori | 12 Februari 2024"
// and only the part after the last bar is the date.
func Suara() Site {
	return Site{
		Name:       types.SourceSuara,
		BaseURL:    "https://www.suara.com",
		SearchPath: "/search?q=%s",
		Timeout:    45 * time.Second,
		Containers: []string{"article.item", "div.widget-content article"},
		Title: []parser.Extractor{
			parser.Text("h4.item-title a"),
			parser.Text("h2.post-title a"),
			parser.XPathText(anyHeadingLink),
		},
		Link: []parser.Extractor{
			parser.Attr("h4.item-title a", "href"),
			parser.Attr("h2.post-title a", "href"),
			parser.XPathAttr(anyHeadingLink, "href"),
		},
		Date: []parser.Extractor{
			parser.AfterLast("|", parser.Text("span.item-date")),
			parser.AfterLast("|", parser.Text("div.post-date")),
		},
		Summary: []parser.Extractor{
			parser.Text("p.item-desc"),
			parser.Text("div.post-excerpt"),
		},
		Image: []parser.Extractor{
			parser.Image("figure.item-img"),
			parser.Image("div.post-thumb"),
			parser.Image(""),
		},
	}
}

// Sites maps configuration names to site definitions.
var Sites = map[string]func() Site{
	config.SiteDetik:  Detik,
	config.SiteCNN:    CNN,
	config.SiteKompas: Kompas,
	config.SiteTribun: Tribun,
	config.SiteSuara:  Suara,
}
