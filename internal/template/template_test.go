package template

import (
	"testing"

	"github.com/fyerfyer/contract-filler/internal/docx"
	"github.com/fyerfyer/contract-filler/internal/docx/docxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, body []string, footer ...string) *docx.Document {
	t.Helper()
	doc, err := docx.Open(docxtest.Build(t, body, footer))
	require.NoError(t, err)
	return doc
}

func runTexts(p docx.Paragraph) []string {
	out := make([]string, len(p.Runs))
	for i, r := range p.Runs {
		out[i] = r.Text
	}
	return out
}

func TestSubstitute_SingleRun(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("Natural de "), docxtest.B("{{NATURALIDADE}}"), docxtest.R(".")),
	})

	out, report := Substitute(doc, map[string]string{"NATURALIDADE": "São Paulo"})

	p := out.Paragraphs()[0]
	assert.Equal(t, []string{"Natural de ", "São Paulo", "."}, runTexts(p))
	assert.True(t, p.Runs[1].Bold)
	assert.Equal(t, 1, report.Replaced["NATURALIDADE"])
	assert.Empty(t, report.Unresolved)
}

func TestSubstitute_SplitAcrossRuns(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("Matrícula {{NUMERO_"), docxtest.B("MATRICULA}} do"), docxtest.R(" imóvel")),
	})

	out, report := Substitute(doc, map[string]string{"NUMERO_MATRICULA": "12.345"})

	p := out.Paragraphs()[0]
	require.Len(t, p.Runs, 3)
	assert.Equal(t, []string{"Matrícula 12.345", " do", " imóvel"}, runTexts(p))
	assert.True(t, p.Runs[1].Bold, "run formatting must be kept")
	assert.Equal(t, 1, report.Total())
}

func TestSubstitute_UnknownTokenLeftVerbatim(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("{{NATURALIDADE}} e {{CAMPO_NOVO}}")),
	})

	out, report := Substitute(doc, map[string]string{"NATURALIDADE": "Recife"})

	assert.Equal(t, "Recife e {{CAMPO_NOVO}}", out.Text())
	assert.Equal(t, []string{"CAMPO_NOVO"}, report.Unresolved)
}

func TestSubstitute_EmptyValue(t *testing.T) {
	doc := open(t, []string{docxtest.P(docxtest.R("Zona: {{ZONA_MATRICULA}}."))})

	out, _ := Substitute(doc, map[string]string{"ZONA_MATRICULA": ""})
	assert.Equal(t, "Zona: .", out.Text())
}

func TestSubstitute_LiteralValues(t *testing.T) {
	doc := open(t, []string{docxtest.P(docxtest.R("Nome: {{NOME_CND}}"))})

	out, _ := Substitute(doc, map[string]string{"NOME_CND": "A & B <Ltda> $1 {{X}}"})
	assert.Equal(t, "Nome: A & B <Ltda> $1 {{X}}", out.Text())

	data, err := out.Bytes()
	require.NoError(t, err)
	reopened, err := docx.Open(data)
	require.NoError(t, err)
	assert.Equal(t, "Nome: A & B <Ltda> $1 {{X}}", reopened.Text())
}

func TestSubstitute_Idempotent(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("{{VALOR_ITBI}} pago em {{DATA_"), docxtest.R("ITBI}}")),
	}, docxtest.P(docxtest.R("Contrato nº {{NUM_CONTRATO}}")))
	fields := map[string]string{"VALOR_ITBI": "R$ 10,00", "DATA_ITBI": "01/02/2024", "NUM_CONTRATO": "77"}

	once, _ := Substitute(doc, fields)
	twice, report := Substitute(once, fields)

	assert.Equal(t, once.Text(docx.AllParts...), twice.Text(docx.AllParts...))
	assert.Equal(t, 0, report.Total())
	assert.Equal(t, "Contrato nº 77", twice.Text(docx.Footer))
}

func TestSubstitute_NoTokensIsIdentity(t *testing.T) {
	doc := open(t, []string{docxtest.P(docxtest.R("Sem campos."))})

	out, report := Substitute(doc, map[string]string{"NATURALIDADE": "x"})
	assert.Equal(t, doc.Text(), out.Text())
	assert.Equal(t, 0, report.Total())
}

func TestSubstitute_DoesNotMutateInput(t *testing.T) {
	doc := open(t, []string{docxtest.P(docxtest.R("{{NATURALIDADE}}"))})

	_, _ = Substitute(doc, map[string]string{"NATURALIDADE": "Recife"})
	assert.Equal(t, "{{NATURALIDADE}}", doc.Text())
}

func TestNormalize_Labels(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("FULANO, brasileiro(a), natural de ________, portador(a) do RG")),
		docxtest.P(docxtest.B("Naturalidade: [cidade]")),
		docxtest.P(docxtest.R("inscrito(a) no CPF, domiciliado(a) na rua, o(a) comprador(a) do(a) imóvel")),
	})

	out, report := NewNormalizer().Normalize(doc)

	paragraphs := out.Paragraphs()
	assert.Equal(t, "FULANO, {{BRASILEIRO}}, natural de {{NATURALIDADE}}, {{PORTADOR}} do RG", paragraphs[0].Text())
	assert.Equal(t, "Naturalidade: {{NATURALIDADE}}", paragraphs[1].Text())
	assert.True(t, paragraphs[1].Runs[0].Bold)
	assert.Equal(t, "{{INSCRITO}} no CPF, {{DOMICILIADO}} na rua, {{O_A}} comprador(a) {{DO_DA}} imóvel", paragraphs[2].Text())
	assert.Equal(t, 8, report.Total())
}

func TestNormalize_Idempotent(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("brasileiro(a), natural de ______")),
	})

	n := NewNormalizer()
	once, _ := n.Normalize(doc)
	twice, report := n.Normalize(once)

	assert.Equal(t, once.Text(), twice.Text())
	assert.Equal(t, 0, report.Total())
}

func TestNormalize_LabelSplitAcrossRunsIsKept(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("natural de "), docxtest.R("______")),
	})

	out, report := NewNormalizer().Normalize(doc)
	assert.Equal(t, "natural de ______", out.Text())
	assert.Equal(t, 0, report.Total())
	assert.Len(t, out.Paragraphs()[0].Runs, 2)
}

func TestNormalize_GenderLabelCase(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("O(A) COMPRADOR(A), Brasileiro(a), Portador(a) do RG")),
		docxtest.P(docxtest.B("BRASILEIRO(A), DOMICILIADO(A) em Recife")),
	})

	normalized, report := NewNormalizer().Normalize(doc)
	paragraphs := normalized.Paragraphs()
	assert.Equal(t, "{{O_A_UPPER}} COMPRADOR(A), {{BRASILEIRO_CAP}}, {{PORTADOR_CAP}} do RG", paragraphs[0].Text())
	assert.Equal(t, "{{BRASILEIRO_UPPER}}, {{DOMICILIADO_UPPER}} em Recife", paragraphs[1].Text())
	assert.Equal(t, 5, report.Total())
	assert.Empty(t, UnknownTokens(normalized))

	female, _ := Substitute(normalized, GenderFields(Female))
	assert.Equal(t, "A COMPRADOR(A), Brasileira, Portadora do RG", female.Paragraphs()[0].Text())
	assert.Equal(t, "BRASILEIRA, DOMICILIADA em Recife", female.Paragraphs()[1].Text())

	male, _ := Substitute(normalized, GenderFields(Male))
	assert.Equal(t, "O COMPRADOR(A), Brasileiro, Portador do RG", male.Paragraphs()[0].Text())
}

func TestGenderFields(t *testing.T) {
	male := GenderFields(Male)
	female := GenderFields(Female)

	assert.Equal(t, "brasileiro", male["BRASILEIRO"])
	assert.Equal(t, "brasileira", female["BRASILEIRO"])
	assert.Equal(t, "da", female["DO_DA"])
	assert.Equal(t, "Da", female["DO_DA_CAP"])
	assert.Equal(t, "PORTADORA", female["PORTADOR_UPPER"])
	assert.Equal(t, "O", male["O_A_CAP"])
	assert.Len(t, female, len(male))
}

func TestParseGender(t *testing.T) {
	g, err := ParseGender("")
	require.NoError(t, err)
	assert.Equal(t, Male, g)

	g, err = ParseGender(" Feminino ")
	require.NoError(t, err)
	assert.Equal(t, Female, g)

	_, err = ParseGender("x")
	assert.Error(t, err)
}

func TestTokensAndVocabulary(t *testing.T) {
	doc := open(t, []string{
		docxtest.P(docxtest.R("{{NATURALIDADE}} {{CAMPO_NOVO}} {{NATURALIDADE}}")),
	}, docxtest.P(docxtest.R("{{NUM_CONTRATO}}")))

	assert.Equal(t, []string{"CAMPO_NOVO", "NATURALIDADE", "NUM_CONTRATO"}, Tokens(doc))
	assert.Equal(t, []string{"CAMPO_NOVO"}, UnknownTokens(doc))

	vocabulary := Vocabulary()
	assert.Contains(t, vocabulary, "DESCRICAO_IMOVEL")
	assert.Contains(t, vocabulary, "O_A")
	assert.Contains(t, vocabulary, "VALOR_ITBI")
}
