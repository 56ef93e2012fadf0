package ports

type Policy struct {
	MaxHistoryLen int `yaml:"max_history_len"`
	FeedBuffer    int `yaml:"feed_buffer"`

	OnHistoryFull string `yaml:"on_history_full"` // "evict", "drop"
}
