package domain

import "fmt"

// Method — способ получения содержимого. Закрытый набор вариантов:
// каждой константе соответствует ровно одна стратегия получения.
type Method string

const (
	// MethodHTTP — одиночный HTTP-запрос с разбором HTML.
	MethodHTTP Method = "http"

	// MethodAPI — запрос к JSON API.
	MethodAPI Method = "api"

	// MethodBrowser — загрузка страницы в headless-браузере.
	MethodBrowser Method = "browser"

	// MethodCrawl — обход списка страниц с пагинацией.
	MethodCrawl Method = "crawl"

	// MethodScrape — извлечение с набора готовых URL.
	MethodScrape Method = "scrape"
)

// ResolveMethod выбирает стратегию шага по полям type и method.
//
// Поле type имеет приоритет; method учитывается, когда type пуст
// (старый формат спецификаций). Оба пустые — http.
// Выбор делается один раз на шаг, до выполнения.
func ResolveMethod(typ, method string) (Method, error) {
	name := typ
	if name == "" {
		name = method
	}
	if name == "" {
		return MethodHTTP, nil
	}

	switch Method(name) {
	case MethodHTTP, MethodAPI, MethodBrowser, MethodCrawl, MethodScrape:
		return Method(name), nil
	default:
		return "", fmt.Errorf("unknown retrieval method %q", name)
	}
}

// Methods возвращает все поддерживаемые способы получения.
func Methods() []Method {
	return []Method{MethodHTTP, MethodAPI, MethodBrowser, MethodCrawl, MethodScrape}
}

// String возвращает строковое представление Method.
func (m Method) String() string {
	return string(m)
}
