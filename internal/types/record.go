package types

// Field is one column of a log row. Rows keep insertion order so the first
// write can derive the CSV header from the keys.
type Field struct {
	Key   string
	Value string
}

type Row []Field

func (r Row) Keys() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Key
	}
	return out
}

func (r Row) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

func (r Row) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}
