package config

type ListConfig interface {
	GetPageSize() int
}

type List struct{}

var _ ListConfig = List{}

func (List) GetPageSize() int {
	size := GetEnvInt(pageSizeVar, 10)
	if size <= 0 {
		return 10
	}
	return size
}
