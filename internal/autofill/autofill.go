// Package autofill сопоставляет поля PDF с атрибутами записи CRM.
package autofill

// Source - источник значений по ключу CRM (redtail.Record).
type Source interface {
	Lookup(key string) (string, bool)
}

// Resolve строит таблицу «поле PDF -> значение» по таблице «поле PDF -> ключ CRM».
// Неизвестный или пустой ключ даёт пустую строку.
func Resolve(src Source, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for name, key := range fields {
		v, ok := src.Lookup(key)
		if !ok {
			v = ""
		}
		out[name] = v
	}
	return out
}
