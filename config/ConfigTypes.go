package config

type config struct {
	Backtest  BacktestConfig
	Database  DatabaseConfig
	Entry     EntryConfig
	Addition  AdditionConfig
	Exit      ExitConfig
	Execution ExecutionConfig
	Universe  []string
	Output    OutputConfig
}

type BacktestConfig struct {
	StartDate      string
	EndDate        string
	InitialCapital float64
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type EntryConfig struct {
	DaysBeforeRecord int
	PositionSize     float64
	MaxPositions     int
	LotSize          int
}

type AdditionConfig struct {
	Enabled   bool
	AddRatio  float64
	AddOnDrop bool
}

type ExitConfig struct {
	MaxHoldingDays int
	StopLossPct    float64
	WindowFillExit bool
	MinHoldingDays int
}

type ExecutionConfig struct {
	SlippageNormal  float64
	SlippageExDate  float64
	CommissionRate  float64
	MinCommission   float64
	MaxCommission   float64
	DividendTaxRate float64
}

type OutputConfig struct {
	ResultsDir   string
	PricesCSV    string
	DividendsCSV string
}
