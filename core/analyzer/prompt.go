package analyzer

import (
	"fmt"
	"strings"
)

// Mode 关键词提取的领域模式，决定系统提示词的侧重点
type Mode string

const (
	ModeGeneric  Mode = "generic"
	ModeLegal    Mode = "legal"
	ModeAcademic Mode = "academic"
	ModeFinance  Mode = "finance"
)

const (
	defaultMinItems = 8
	defaultMaxItems = 20
)

// defaultCategories 关键词分类的缺省取值
var defaultCategories = []string{"person", "organization", "date", "amount", "location", "topic", "other"}

// modeInstructions 各领域模式对应的提取指令
var modeInstructions = map[Mode]string{
	ModeGeneric:  "Extrae palabras clave generales del documento",
	ModeLegal:    "Extrae términos legales, partes involucradas, fechas importantes y conceptos jurídicos",
	ModeAcademic: "Extrae conceptos académicos, autores, metodologías y términos técnicos",
	ModeFinance:  "Extrae términos financieros, montos, fechas de vencimiento y entidades financieras",
}

// localeInstructions 输出语言指令
var localeInstructions = map[string]string{
	"es": "Responde en español",
	"en": "Respond in English",
}

// Options 单次提取的可覆盖参数，零值字段取缺省值
type Options struct {
	Mode          Mode
	Locale        string
	MinItems      int
	MaxItems      int
	Categories    []string
	ExtraGuidance string
}

// normalize 填充缺省值，未知取值回退到缺省模式
func (o *Options) normalize() {
	if _, ok := modeInstructions[o.Mode]; !ok {
		o.Mode = ModeGeneric
	}
	if _, ok := localeInstructions[o.Locale]; !ok {
		o.Locale = "es"
	}
	if o.MinItems <= 0 {
		o.MinItems = defaultMinItems
	}
	if o.MaxItems < o.MinItems {
		o.MaxItems = defaultMaxItems
	}
	if len(o.Categories) == 0 {
		o.Categories = defaultCategories
	}
}

// buildSystemPrompt 构建关键词提取的系统提示词
// 要求模型只返回JSON数组，不夹带解释性文本
func buildSystemPrompt(opts *Options) string {
	return fmt.Sprintf(`Eres un experto en análisis de documentos. %s.

%s.

Categorías disponibles: %s

Instrucciones:
1. Extrae entre %d y %d palabras clave del texto proporcionado
2. Clasifica cada palabra clave en una de las categorías disponibles
3. Devuelve ÚNICAMENTE un array JSON válido con objetos que tengan la estructura: {"phrase": "palabra clave", "kind": "categoria"}
4. NO incluyas texto adicional, explicaciones o comentarios
5. NO uses markdown ni formato adicional
6. Solo el array JSON puro

%s`,
		modeInstructions[opts.Mode],
		localeInstructions[opts.Locale],
		strings.Join(opts.Categories, ", "),
		opts.MinItems,
		opts.MaxItems,
		opts.ExtraGuidance,
	)
}

// buildUserPrompt 将待分析文本渲染为用户消息
func buildUserPrompt(documentText string) string {
	return fmt.Sprintf(`Analiza el siguiente texto y extrae las palabras clave según las instrucciones del sistema:

%s`, documentText)
}
