package services

import (
	"context"
	"sort"

	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/extract"
	"github.com/fyerfyer/contract-filler/internal/template"
)

// Slot 上传文档对应的表单字段
type Slot string

const (
	SlotTemplate     Slot = "modelo"
	SlotRegistration Slot = "ficha"
	SlotPropertyDeed Slot = "matricula"
	SlotFederalCND   Slot = "cnd"
	SlotStateCND     Slot = "cnd_estadual"
	SlotLaborCND     Slot = "cnd_trabalhista"
	SlotMunicipalCND Slot = "cnd_prefeitura"
	SlotTransferTax  Slot = "itbi"
)

// SourceSlots 按提取顺序列出证明文件
func SourceSlots() []Slot {
	return []Slot{
		SlotRegistration,
		SlotPropertyDeed,
		SlotFederalCND,
		SlotStateCND,
		SlotLaborCND,
		SlotMunicipalCND,
		SlotTransferTax,
	}
}

// Slots 列出填充请求的所有上传文件，模板在最前
func Slots() []Slot {
	return append([]Slot{SlotTemplate}, SourceSlots()...)
}

// slotKinds 每个证明文件对应的提取器类型
var slotKinds = map[Slot][]extract.Kind{
	SlotRegistration: {extract.KindRegistration},
	SlotPropertyDeed: {extract.KindPropertyDeed, extract.KindPropertyRecord},
	SlotFederalCND:   {extract.KindFederalCND},
	SlotStateCND:     {extract.KindStateCND},
	SlotLaborCND:     {extract.KindLaborCND},
	SlotMunicipalCND: {extract.KindMunicipalCND},
	SlotTransferTax:  {extract.KindTransferTax},
}

// 替换步骤名，按执行顺序
const (
	StepGeneral        = "geral"
	StepDescription    = "descricao_imovel"
	StepMetadata       = "dados_matricula"
	StepFederalCND     = "cnd_federal"
	StepStateCND       = "cnd_estadual"
	StepLaborCND       = "cnd_trabalhista"
	StepMunicipalCND   = "cnd_prefeitura"
	StepTransferTax    = "itbi"
	StepContractFields = "contrato"
)

// Step 一个替换步骤
type Step struct {
	Name   string
	Fields map[string]string
}

// BuildSteps 返回应用到标准化模板上的替换步骤
// 顺序为：基本信息、不动产描述、登记信息、四份证明、ITBI，最后是合同编号
// 合同编号为空时写回它自己的占位符
func BuildSteps(gender template.Gender, fields map[extract.Kind]extract.FieldMap, contractNumber string) []Step {
	general := template.GenderFields(gender)
	for k, v := range fields[extract.KindRegistration] {
		general[k] = v
	}

	if contractNumber == "" {
		contractNumber = template.Token(extract.FieldContractNumber)
	}

	return []Step{
		{Name: StepGeneral, Fields: general},
		{Name: StepDescription, Fields: fields[extract.KindPropertyDeed]},
		{Name: StepMetadata, Fields: fields[extract.KindPropertyRecord]},
		{Name: StepFederalCND, Fields: fields[extract.KindFederalCND]},
		{Name: StepStateCND, Fields: fields[extract.KindStateCND]},
		{Name: StepLaborCND, Fields: fields[extract.KindLaborCND]},
		{Name: StepMunicipalCND, Fields: fields[extract.KindMunicipalCND]},
		{Name: StepTransferTax, Fields: fields[extract.KindTransferTax]},
		{Name: StepContractFields, Fields: map[string]string{extract.FieldContractNumber: contractNumber}},
	}
}

// Fold 用所有步骤的字段填充doc
// 占位符只在doc本身上查找一次，多个步骤提供同名字段时以靠前的步骤为准，
// 前面步骤写入的值不会被后面的步骤当作占位符再次替换
// observe 不为nil时按顺序接收每个步骤的报告：该步骤填充的占位符，以及整个过程结束后仍未填充的占位符
// 合并每个步骤前检查ctx是否已取消
func Fold(ctx context.Context, doc *docx.Document, steps []Step, observe func(Step, template.SubstitutionReport)) (*docx.Document, error) {
	merged := make(map[string]string)
	owner := make(map[string]int)
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for name, value := range step.Fields {
			if _, ok := merged[name]; ok {
				continue
			}
			merged[name] = value
			owner[name] = i
		}
	}

	out, report := template.Substitute(doc, merged)
	if observe == nil {
		return out, nil
	}
	for i, step := range steps {
		stepReport := template.SubstitutionReport{
			Replaced:   make(map[string]int),
			Unresolved: report.Unresolved,
		}
		for name, n := range report.Replaced {
			if owner[name] == i {
				stepReport.Replaced[name] = n
			}
		}
		observe(step, stepReport)
	}
	return out, nil
}

// FieldSteps 按执行顺序列出每个替换步骤填充的占位符
func FieldSteps() []Step {
	fields := make(map[extract.Kind]extract.FieldMap)
	for kind, names := range extract.Vocabulary() {
		m := make(extract.FieldMap, len(names))
		for _, name := range names {
			m[name] = ""
		}
		fields[kind] = m
	}
	return BuildSteps(template.Male, fields, "")
}

// FieldNames 返回排序后的占位符名
func (s Step) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
