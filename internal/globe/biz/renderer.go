package biz

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var defaultCountries []byte

// 球面网格分段限制
const (
	DefaultSegments   = 64
	MinWidthSegments  = 3
	MinHeightSegments = 2
	MaxSegments       = 256
)

// ErrInvalidSegments 分段数超出范围
var ErrInvalidSegments = errors.New("invalid sphere segments")

// Color RGB，分量取值 [0,1]
type Color struct {
	R, G, B float32
}

// 着色优先级：existing > potential > challenging > 默认灰色
var (
	ColorExisting    = Color{1, 0, 0}
	ColorPotential   = Color{0, 1, 0}
	ColorChallenging = Color{1, 1, 0}
	ColorDefault     = Color{0xcc / 255.0, 0xcc / 255.0, 0xcc / 255.0}
)

// Hex 返回 #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float32) uint8 {
	return uint8(math.Round(float64(v) * 255))
}

// BoundingBox 国家的经纬度外接矩形
type BoundingBox struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Contains 边界包含在内
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// CountryTable 国家代码到外接矩形的映射
type CountryTable map[string]BoundingBox

// LoadCountryTable 读取国家表；path 为空时使用内置表
func LoadCountryTable(path string) (CountryTable, error) {
	data := defaultCountries
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read country table: %w", err)
		}
	}

	var table CountryTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse country table: %w", err)
	}
	if len(table) == 0 {
		return nil, errors.New("country table is empty")
	}
	for code, box := range table {
		if box.MinLat > box.MaxLat || box.MinLon > box.MaxLon {
			return nil, fmt.Errorf("country %s: min exceeds max", code)
		}
	}
	return table, nil
}

// Renderer 按国家分类为球面着色，纯计算无外部调用
// 外接矩形只是近似：会覆盖邻国和海洋
type Renderer struct {
	countries CountryTable
}

// NewRenderer 创建渲染器
func NewRenderer(countries CountryTable) *Renderer {
	return &Renderer{countries: countries}
}

// ColorAt 返回给定经纬度的颜色
func (r *Renderer) ColorAt(lat, lon float64, c *Classification) Color {
	switch {
	case r.inAny(lat, lon, c.Existing):
		return ColorExisting
	case r.inAny(lat, lon, c.Potential):
		return ColorPotential
	case r.inAny(lat, lon, c.Challenging):
		return ColorChallenging
	}
	return ColorDefault
}

func (r *Renderer) inAny(lat, lon float64, codes []string) bool {
	for _, code := range codes {
		if box, ok := r.countries[code]; ok && box.Contains(lat, lon) {
			return true
		}
	}
	return false
}

// UnknownCodes 返回国家表中不存在的代码（去重、排序）
func (r *Renderer) UnknownCodes(c *Classification) []string {
	var unknown []string
	for _, group := range [][]string{c.Existing, c.Potential, c.Challenging} {
		for _, code := range group {
			if _, ok := r.countries[code]; !ok && !slices.Contains(unknown, code) {
				unknown = append(unknown, code)
			}
		}
	}
	slices.Sort(unknown)
	return unknown
}

// Mesh 单位球面的逐顶点颜色
type Mesh struct {
	WidthSegments  int       `json:"widthSegments"`
	HeightSegments int       `json:"heightSegments"`
	Colors         []float32 `json:"colors"`
	UnknownCodes   []string  `json:"unknownCodes,omitempty"`
}

// Mesh 计算 UV 球面每个顶点的颜色，顶点顺序与 three.js SphereGeometry 相同：
// 共 (heightSegments+1)*(widthSegments+1) 个顶点，从北极开始逐行排列
func (r *Renderer) Mesh(c *Classification, widthSegments, heightSegments int) (*Mesh, error) {
	if widthSegments < MinWidthSegments || widthSegments > MaxSegments ||
		heightSegments < MinHeightSegments || heightSegments > MaxSegments {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSegments, widthSegments, heightSegments)
	}

	colors := make([]float32, 0, (widthSegments+1)*(heightSegments+1)*3)
	for iy := 0; iy <= heightSegments; iy++ {
		theta := float64(iy) / float64(heightSegments) * math.Pi
		for ix := 0; ix <= widthSegments; ix++ {
			phi := float64(ix) / float64(widthSegments) * 2 * math.Pi
			x := -math.Cos(phi) * math.Sin(theta)
			y := math.Cos(theta)
			z := math.Sin(phi) * math.Sin(theta)

			lat, lon := VertexLatLon(x, y, z)
			color := r.ColorAt(lat, lon, c)
			colors = append(colors, color.R, color.G, color.B)
		}
	}

	return &Mesh{
		WidthSegments:  widthSegments,
		HeightSegments: heightSegments,
		Colors:         colors,
		UnknownCodes:   r.UnknownCodes(c),
	}, nil
}

// VertexLatLon 把球面顶点换算为经纬度（度），经度范围 [-180,180)
func VertexLatLon(x, y, z float64) (lat, lon float64) {
	if n := math.Sqrt(x*x + y*y + z*z); n > 0 {
		x, y, z = x/n, y/n, z/n
	}
	y = math.Max(-1, math.Min(1, y))

	lat = 90 - math.Acos(y)*180/math.Pi
	lon = math.Mod(math.Atan2(-z, x)*180/math.Pi+180, 360) - 180
	return lat, lon
}
