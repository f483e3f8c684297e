package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

// Presets 命名的规则预设，未写出的字段取默认规则
type Presets map[string]rummikub.Rules

type presetsFile struct {
	Presets map[string]yaml.Node `yaml:"presets"`
}

// LoadPresets 读取规则预设文件
func LoadPresets(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets %s: %w", path, err)
	}
	return ParsePresets(data)
}

// ParsePresets 解析规则预设，每条预设都会校验
func ParsePresets(data []byte) (Presets, error) {
	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	presets := make(Presets, len(file.Presets))
	for name, node := range file.Presets {
		rules := rummikub.DefaultRules()
		if err := node.Decode(&rules); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		normalized, err := rules.Normalize()
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		presets[name] = normalized
	}
	return presets, nil
}

// Get 按名字取预设
func (p Presets) Get(name string) (rummikub.Rules, error) {
	rules, ok := p[name]
	if !ok {
		return rummikub.Rules{}, fmt.Errorf("unknown rules preset %q, available: %v", name, p.Names())
	}
	return rules, nil
}

// Names 预设名，按字母排序
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
