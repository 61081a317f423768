package extract

// 与模板层共用的字段名
const (
	FieldBirthplace     = "NATURALIDADE"
	FieldContractNumber = "NUM_CONTRATO"
)

var (
	registrationCut = CutAt("nacionalidade", "estado civil", "profissão", "profissao",
		"data de nascimento", "nascimento", "sexo", "RG", "CPF")
	nameCut    = CutAt("CPF/CNPJ", "CPF", "CNPJ", "RG", "Inscrição", "Inscricao", "Endereço", "Endereco")
	officeCut  = CutAt("CNM", "CNS", "Matrícula", "Matricula", "Ficha", "Livro")
	addressCut = CutAt("Contribuinte", "Inscrição", "Inscricao", "SQL", "Cadastro", "Área", "Area")
)

const (
	numericDatePattern = `(\d{1,2}/\d{1,2}/\d{4})`
	writtenDatePattern = `(?i)(\d{1,2}\s*[ºo°]?\s+de\s+\p{L}+\s+de\s+\d{4})`
	looseCode          = `([A-Z0-9./\-]*\d[A-Z0-9./\-]*)`
	certificateNumber  = `(?i)certid[ãa]o\s+(?:n[º°o.]*|n[úu]mero)\s*:?\s*`
	certificateTitle   = `(?im)^(CERTID[ÃA]O\s+(?:NEGATIVA|POSITIVA)[^\n]*)`
	looseTitle         = `(?i)(certid[ãa]o\s+(?:negativa|positiva)[^\n.]*)`
	clockPattern       = `(\d{1,2}:\d{2}(?::\d{2})?)`
)

var registrationRules = []Rule{
	NewRule(FieldBirthplace, `(?i)naturalidade(?:\s*/\s*UF)?\s*[:\-]?\s*([^\n]+)`, registrationCut),
	NewRule(FieldBirthplace, `(?i)natural\s+de\s+([^\n,;]+)`, registrationCut),
	NewRule(FieldBirthplace, `(?i)nascid[oa]\s+em\s+(\p{L}[^\n,;/]*)`, registrationCut),
}

var propertyDeedRules = []Rule{
	NewRule("DESCRICAO_IMOVEL", `(?is)\bIM[ÓO]VEL\s*:\s*(.+?)\s*(?:PROPRIET[ÁA]RI[OA]S?|ADQUIRENTES?|TRANSMITENTES?|REGISTRO\s+ANTERIOR|\bR\.?\s*0*1\s*[/-]|\bAV\.?\s*0*1\s*[/-])`, Text),
	NewRule("DESCRICAO_IMOVEL", `(?is)DESCRI[ÇC][ÃA]O\s+DO\s+IM[ÓO]VEL\s*:?\s*(.+?)(?:\n\n|$)`, Text),
	NewRule("DESCRICAO_IMOVEL", `(?is)\bIM[ÓO]VEL\s*:\s*(.+?)(?:\n\n|$)`, Text),
}

var propertyRecordRules = []Rule{
	NewRule("NUMERO_MATRICULA", `(?i)matr[íi]cula\s*(?:n[º°o.]*|n[úu]mero)?\s*:?\s*(\d{1,3}(?:\.\d{3})+|\d+)`, Code),

	NewRule("DATA_MATRICULA", `(?i)(?:data(?:\s+da\s+matr[íi]cula|\s+de\s+abertura)?|aberta\s+em|registrad[oa]\s+em)\s*:?\s*(\d{1,2}\s*[/.\-]\s*\d{1,2}\s*[/.\-]\s*\d{2,4})`, Date),
	NewRule("DATA_MATRICULA", writtenDatePattern, Date),
	NewRule("DATA_MATRICULA", numericDatePattern, Date),

	NewRule("CARTORIO_MATRICULA", `(?i)(\d{1,2}\s*[º°ªo]?\s*(?:(?:oficial|cart[óo]rio|servi[çc]o)\s+de\s+)?registro\s+de\s+im[óo]veis[^\n]*)`, officeCut),
	NewRule("CARTORIO_MATRICULA", `(?i)((?:oficial|cart[óo]rio|servi[çc]o)\s+de\s+registro\s+de\s+im[óo]veis[^\n]*)`, officeCut),
	NewRule("CARTORIO_MATRICULA", `(?i)(registro\s+de\s+im[óo]veis\s+d[aeo]\s+[^\n]+)`, officeCut),

	NewRule("ZONA_MATRICULA", `(?i)\bzona\s*:?\s*((?:norte|sul|leste|oeste|centro|central|urbana|rural)\b|\d+\s*[ªº°]?)`, Title),
	NewRule("ZONA_MATRICULA", `(?i)\b(\d+\s*[ªº°a]?\s+zona)\b`, Text),
	NewRule("ZONA_MATRICULA", `(?i)\b(\d+\s*[ªº°a]?\s*circunscri[çc][ãa]o)`, Text),
}

var federalCNDRules = []Rule{
	NewRule("TITULO_CND", certificateTitle, Upper),
	NewRule("TITULO_CND", looseTitle, Upper),

	NewRule("CODIGO_CND", `(?i)c[óo]digo\s+de\s+controle(?:\s+da\s+certid[ãa]o)?\s*:?\s*([0-9A-F]{4}(?:\s*\.\s*[0-9A-F]{4}){3})`, Code),
	NewRule("CODIGO_CND", `\b([0-9A-F]{4}\.[0-9A-F]{4}\.[0-9A-F]{4}\.[0-9A-F]{4})\b`, Code),

	NewRule("HORA_CND", `(?i)emitida\s+[àa]s\s+`+clockPattern, Time),
	NewRule("HORA_CND", `\b(\d{1,2}:\d{2}:\d{2})\b`, Time),

	NewRule("DATA_CND", `(?i)emitida\s+[àa]s\s+[\d:]+\s+do\s+dia\s+`+numericDatePattern, Date),
	NewRule("DATA_CND", `(?i)do\s+dia\s+`+numericDatePattern, Date),
	NewRule("DATA_CND", numericDatePattern, Date),

	NewRule("NOME_CND", `(?i)\bnome\s*:\s*([^\n]+)`, nameCut),
	NewRule("NOME_CND", `(?i)raz[ãa]o\s+social\s*:\s*([^\n]+)`, nameCut),
}

var stateCNDRules = []Rule{
	NewRule("TITULO_CND_ESTADUAL", certificateTitle, Upper),
	NewRule("TITULO_CND_ESTADUAL", looseTitle, Upper),

	NewRule("NUMERO_CND_ESTADUAL", certificateNumber+looseCode, Code),
	NewRule("NUMERO_CND_ESTADUAL", `(?i)n[úu]mero\s+da\s+certid[ãa]o\s*:?\s*`+looseCode, Code),

	NewRule("DATA_CND_ESTADUAL", `(?i)(?:data\s+(?:e\s+hora\s+)?(?:da\s+|de\s+)?(?:emiss[ãa]o|expedi[çc][ãa]o)|emitida\s+em|expedida\s+em)\s*:?\s*`+numericDatePattern, Date),
	NewRule("DATA_CND_ESTADUAL", numericDatePattern, Date),

	NewRule("HORA_CND_ESTADUAL", `(?i)(?:emiss[ãa]o|expedi[çc][ãa]o|emitida\s+em|expedida\s+em)\s*:?\s*\d{1,2}/\d{1,2}/\d{4}\s*,?\s*(?:[àa]s\s*)?`+clockPattern, Time),
	NewRule("HORA_CND_ESTADUAL", `(?i)hora(?:\s+da\s+emiss[ãa]o)?\s*:\s*`+clockPattern, Time),
	NewRule("HORA_CND_ESTADUAL", `\b(\d{1,2}:\d{2}:\d{2})\b`, Time),

	NewRule("NOME_CND_ESTADUAL", `(?i)(?:interessado|contribuinte|nome|raz[ãa]o\s+social)\s*:\s*([^\n]+)`, nameCut),
}

var laborCNDRules = []Rule{
	NewRule("TITULO_CND_TRAB", `(?im)^(CERTID[ÃA]O\s+(?:NEGATIVA|POSITIVA)[^\n]*TRABALHISTAS?)`, Upper),
	NewRule("TITULO_CND_TRAB", `(?i)(certid[ãa]o\s+(?:negativa|positiva)(?:\s+com\s+efeito\s+de\s+negativa)?\s+de\s+d[ée]bitos\s+trabalhistas)`, Upper),
	NewRule("TITULO_CND_TRAB", certificateTitle, Upper),

	NewRule("NUMERO_CND_TRAB", certificateNumber+`(\d+/\d{4})`, Code),
	NewRule("NUMERO_CND_TRAB", certificateNumber+looseCode, Code),

	NewRule("DATA_CND_TRAB", `(?i)expedi[çc][ãa]o\s*:?\s*`+numericDatePattern, Date),
	NewRule("DATA_CND_TRAB", numericDatePattern, Date),

	NewRule("HORA_CND_TRAB", `(?i)expedi[çc][ãa]o\s*:?\s*\d{1,2}/\d{1,2}/\d{4}\s*,?\s*(?:[àa]s\s*)?`+clockPattern, Time),
	NewRule("HORA_CND_TRAB", `\b(\d{1,2}:\d{2}:\d{2})\b`, Time),

	NewRule("NOME_CND_TRAB", `(?i)\bnome\s*:\s*([^\n]+)`, nameCut),
}

var municipalCNDRules = []Rule{
	NewRule("NUMERO_CND_PREF", certificateNumber+looseCode, Code),
	NewRule("NUMERO_CND_PREF", `(?i)n[úu]mero\s+(?:da\s+certid[ãa]o|do\s+documento)\s*:?\s*`+looseCode, Code),

	NewRule("DATA_CND_PREF", `(?i)(?:data\s+(?:de\s+|da\s+)?emiss[ãa]o|emitida\s+em|expedida\s+em)\s*:?\s*`+numericDatePattern, Date),
	NewRule("DATA_CND_PREF", writtenDatePattern, Date),
	NewRule("DATA_CND_PREF", numericDatePattern, Date),

	NewRule("ENDERECO_CND_PREF", `(?i)(?:endere[çc]o(?:\s+do\s+im[óo]vel)?|local(?:iza[çc][ãa]o)?\s+do\s+im[óo]vel|logradouro)\s*:\s*([^\n]+)`, addressCut),
}

var transferTaxRules = []Rule{
	NewRule("VALOR_ITBI", `(?i)valor\s+(?:total\s+)?(?:a\s+(?:pagar|recolher)|do\s+(?:itbi|imposto)|(?:do\s+)?documento|cobrado|pago|total)\s*:?\s*(?:R\$\s*)?(\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2})`, Currency),
	NewRule("VALOR_ITBI", `(?i)(?:itbi|imposto)[^\n]*?R\$\s*(\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2})`, Currency),
	NewRule("VALOR_ITBI", `R\$\s*(\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2})`, Currency),

	NewRule("GUIA_ITBI", `(?i)(?:n[úu]mero\s+da\s+guia|guia\s*(?:n[º°o.]*|n[úu]mero)?)\s*:?\s*(\d[\d./\-]{3,})`, Code),
	NewRule("GUIA_ITBI", `(?i)(?:n[º°o.]+\s*(?:do\s+)?documento|nosso\s+n[úu]mero)\s*:?\s*(\d[\d./\-]{3,})`, Code),

	NewRule("DATA_ITBI", `(?i)(?:data\s+(?:de\s+|do\s+)?(?:pagamento|vencimento|emiss[ãa]o)|vencimento|pago\s+em)\s*:?\s*`+numericDatePattern, Date),
	NewRule("DATA_ITBI", numericDatePattern, Date),
}

var contractRules = []Rule{
	NewRule(FieldContractNumber, `(?i)contrato\s*(?:n[º°o.]*|n[úu]mero|#)?\s*:?\s*(\d[\d./\-]*)`, Code),
	NewRule(FieldContractNumber, `(?i)n[º°]\s*(?:do\s+)?contrato\s*:?\s*(\d[\d./\-]*)`, Code),
}

func init() {
	Register(NewRuleExtractor(KindRegistration, []string{FieldBirthplace}, registrationRules))
	Register(NewRuleExtractor(KindPropertyDeed, []string{"DESCRICAO_IMOVEL"}, propertyDeedRules))
	Register(NewRuleExtractor(KindPropertyRecord,
		[]string{"NUMERO_MATRICULA", "DATA_MATRICULA", "CARTORIO_MATRICULA", "ZONA_MATRICULA"},
		propertyRecordRules))
	Register(NewRuleExtractor(KindFederalCND,
		[]string{"TITULO_CND", "CODIGO_CND", "DATA_CND", "HORA_CND", "NOME_CND"},
		federalCNDRules))
	Register(NewRuleExtractor(KindStateCND,
		[]string{"TITULO_CND_ESTADUAL", "NUMERO_CND_ESTADUAL", "DATA_CND_ESTADUAL", "HORA_CND_ESTADUAL", "NOME_CND_ESTADUAL"},
		stateCNDRules))
	Register(NewRuleExtractor(KindLaborCND,
		[]string{"TITULO_CND_TRAB", "NUMERO_CND_TRAB", "DATA_CND_TRAB", "HORA_CND_TRAB", "NOME_CND_TRAB"},
		laborCNDRules))
	Register(NewRuleExtractor(KindMunicipalCND,
		[]string{"NUMERO_CND_PREF", "DATA_CND_PREF", "ENDERECO_CND_PREF"},
		municipalCNDRules))
	Register(NewRuleExtractor(KindTransferTax,
		[]string{"VALOR_ITBI", "GUIA_ITBI", "DATA_ITBI"},
		transferTaxRules))
	Register(NewRuleExtractor(KindContractTemplate, []string{FieldContractNumber}, contractRules))
}
