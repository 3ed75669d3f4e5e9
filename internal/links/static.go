package links

import (
	"context"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

var staticLinks = []domain.SearchResultLink{
	{
		Title:   "Решение проблем с ККТ и 1С - Официальный сайт поддержки",
		URL:     "https://v8.1c.ru/tekhnologii/rabota-s-oborudovaniem/",
		Snippet: "Подробная инструкция по настройке и устранению неполадок в работе ККТ с программами 1С.",
	},
	{
		Title:   "Часто возникающие ошибки ФН и способы их устранения",
		URL:     "https://www.atol.ru/support/knowledge/kkt-atol-oshibki-fn-i-sposoby-ikh-ustraneniya/",
		Snippet: "Разбор основных ошибок фискальных накопителей и пошаговые инструкции по их устранению.",
	},
	{
		Title:   "Форум 1С: Проблемы с печатью чеков",
		URL:     "https://forum.mista.ru/topic.php?id=809062",
		Snippet: "Обсуждение и решение распространенных проблем при печати чеков в программах 1С.",
	},
	{
		Title:   "Инструкция по подключению ККТ к 1С 8.3",
		URL:     "https://infostart.ru/1c-articles/1146001/",
		Snippet: "Пошаговое руководство по настройке подключения кассовых аппаратов к 1С 8.3.",
	},
	{
		Title:   "Диагностика и устранение неисправностей ККТ",
		URL:     "https://www.shtrih-m.ru/support/download/diagnostika-i-ustranenie-neispravnostey-kkt.pdf",
		Snippet: "Официальное руководство по диагностике и устранению неисправностей контрольно-кассовой техники.",
	},
}

// Static - офлайн-подборка, одинаковая для любого запроса
type Static struct{}

func NewStatic() *Static {
	return &Static{}
}

func (s *Static) FindLinks(_ context.Context, _ string) ([]domain.SearchResultLink, error) {
	out := make([]domain.SearchResultLink, len(staticLinks))
	copy(out, staticLinks)
	return out, nil
}

func (s *Static) Name() string {
	return "static"
}
