package utils

// BatchStrings разбивает срез строк на батчи.
func BatchStrings(items []string, batchSize int) [][]string {
	if len(items) == 0 {
		return [][]string{}
	}
	if batchSize <= 0 {
		batchSize = len(items) // некорректный размер: всё одним батчем
	}

	var batches [][]string
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}

// UniqueStrings returns items without duplicates or empty strings, keeping first-seen order.
func UniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SafeDeref безопасно разыменовывает указатель и применяет геттер.
// Для nil возвращает нулевое значение R.
func SafeDeref[T any, R any](ptr *T, getter func(T) R) R {
	var zero R
	if ptr == nil {
		return zero
	}
	return getter(*ptr)
}
