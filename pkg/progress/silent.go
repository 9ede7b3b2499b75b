package progress

// Silent is a no-op reporter.
type Silent struct{}

// NewSilent creates a silent reporter.
func NewSilent() *Silent {
	return &Silent{}
}

func (s *Silent) Init(total int64) {}

func (s *Silent) Add(n int64) {}

func (s *Silent) Complete() {}

func (s *Silent) Close() error {
	return nil
}
