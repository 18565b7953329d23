package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataDir     string `json:"data_dir" yaml:"data_dir"`         // 数据文件目录
	WorldFile   string `json:"world_file" yaml:"world_file"`     // 各国快照表(worldometer)
	GroupedFile string `json:"grouped_file" yaml:"grouped_file"` // 按日期分组的时间序列表
	Encoding    string `json:"encoding" yaml:"encoding"`         // 输入文件编码: utf-8/gbk/latin1/windows-1252
	SheetName   string `json:"sheet_name" yaml:"sheet_name"`     // xlsx输入时读取的工作表
	HeaderRow   int    `json:"header_row" yaml:"header_row"`     // xlsx标题行(从0开始)
	LogName     string `json:"log_name" yaml:"log_name"`
	LogMaxSize  string `json:"log_max_size" yaml:"log_max_size"` // 例如 "10 * 1024 * 1024"
	LogLevel    string `json:"log_level" yaml:"log_level"`

	Server struct {
		Addr            string   `json:"addr" yaml:"addr"`                         // 监听地址
		ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"` // 优雅退出超时
	} `json:"server" yaml:"server"`

	Export struct {
		Dir      string `json:"dir" yaml:"dir"`           // 报表导出目录
		Schedule string `json:"schedule" yaml:"schedule"` // cron表达式，为空则不定时导出
	} `json:"export" yaml:"export"`

	Watch struct {
		Enabled  bool     `json:"enabled" yaml:"enabled"`   // 是否监听数据目录
		Debounce Duration `json:"debounce" yaml:"debounce"` // 文件变化后的合并等待时间
	} `json:"watch" yaml:"watch"`
}

// DataConfig 数据清洗相关的配置
type DataConfig struct {
	ExcludedCountries []string          `json:"excluded_countries" yaml:"excluded_countries"` // 需要剔除的非国家条目
	RateColumns       []string          `json:"rate_columns" yaml:"rate_columns"`             // 每百万人口指标，不做整数转换
	FillMissing       *bool             `json:"fill_missing" yaml:"fill_missing"`             // 缺失值是否补0
	TopN              int               `json:"top_n" yaml:"top_n"`                           // 受影响最严重国家数量
	WorldTopN         int               `json:"world_top_n" yaml:"world_top_n"`               // 世界数据排行数量
	Columns           map[string]string `json:"columns" yaml:"columns"`                       // 逻辑列名 -> 文件列名
}

var mu sync.RWMutex

// LoadConfig 读取并解析两个配置文件
// 扩展名为 .yaml/.yml 时按YAML解析，其余按JSON解析
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, isYAML(configFile), cfgChan, errChan)
	go parseDataConfig(dataConfigData, isYAML(dataConfigFile), dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyDefaults()
	dcfg.applyDefaults()
	return cfg, dcfg, nil
}

// Default 返回全部使用默认值的配置，用于没有配置文件的场景
func Default() (*Config, *DataConfig) {
	cfg := &Config{}
	dcfg := &DataConfig{}
	cfg.applyDefaults()
	dcfg.applyDefaults()
	return cfg, dcfg
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func decode(data []byte, asYAML bool, v interface{}) error {
	if asYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func parseConfig(data []byte, asYAML bool, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := decode(data, asYAML, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, asYAML bool, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := decode(data, asYAML, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.WorldFile == "" {
		c.WorldFile = "worldometer_data.csv"
	}
	if c.GroupedFile == "" {
		c.GroupedFile = "full_grouped.csv"
	}
	if c.Encoding == "" {
		c.Encoding = "utf-8"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "export"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(500 * time.Millisecond)
	}
}

func (dc *DataConfig) applyDefaults() {
	if dc.ExcludedCountries == nil {
		dc.ExcludedCountries = []string{"Diamond Princess"}
	}
	if dc.RateColumns == nil {
		dc.RateColumns = []string{"Tests/1M pop", "Deaths/1M pop", "Tot Cases/1M pop"}
	}
	if dc.FillMissing == nil {
		fill := true
		dc.FillMissing = &fill
	}
	if dc.TopN <= 0 {
		dc.TopN = 5
	}
	if dc.WorldTopN <= 0 {
		dc.WorldTopN = 10
	}
	if dc.Columns == nil {
		dc.Columns = make(map[string]string)
	}
}

// WorldPath 快照表完整路径
func (c *Config) WorldPath() string { return filepath.Join(c.DataDir, c.WorldFile) }

// GroupedPath 时间序列表完整路径
func (c *Config) GroupedPath() string { return filepath.Join(c.DataDir, c.GroupedFile) }

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON/YAML中的 "5m0s" 写法
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML 实现yaml.Unmarshaler接口
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Std 转为time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// GetColumn 返回逻辑列名在数据文件中的实际列名，没有配置时原样返回
func (dc *DataConfig) GetColumn(logical string) string {
	mu.RLock()
	defer mu.RUnlock()
	if name, ok := dc.Columns[logical]; ok && name != "" {
		return name
	}
	return logical
}

func (dc *DataConfig) SetColumn(logical, value string) {
	mu.Lock()
	defer mu.Unlock()
	if dc.Columns == nil {
		dc.Columns = make(map[string]string)
	}
	dc.Columns[logical] = value
}

// ShouldFill 缺失值是否补0
func (dc *DataConfig) ShouldFill() bool {
	return dc.FillMissing == nil || *dc.FillMissing
}
