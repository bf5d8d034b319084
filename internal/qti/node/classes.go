package node

// Class tags.
const (
	ClassAssessmentItem          = "assessmentItem"
	ClassResponseDeclaration     = "responseDeclaration"
	ClassOutcomeDeclaration      = "outcomeDeclaration"
	ClassTemplateDeclaration     = "templateDeclaration"
	ClassDefaultValue            = "defaultValue"
	ClassCorrectResponse         = "correctResponse"
	ClassValue                   = "value"
	ClassMapping                 = "mapping"
	ClassMapEntry                = "mapEntry"
	ClassResponseProcessing      = "responseProcessing"
	ClassItemBody                = "itemBody"
	ClassDiv                     = "div"
	ClassP                       = "p"
	ClassSpan                    = "span"
	ClassTextRun                 = "textRun"
	ClassPrompt                  = "prompt"
	ClassChoiceInteraction       = "choiceInteraction"
	ClassSimpleChoice            = "simpleChoice"
	ClassTextEntryInteraction    = "textEntryInteraction"
	ClassExtendedTextInteraction = "extendedTextInteraction"
)

// Content categories used by the body groups.
var (
	inlineStaticClasses = []string{ClassTextRun, ClassSpan}
	inlineClasses       = append(append([]string(nil), inlineStaticClasses...), ClassTextEntryInteraction)
	blockClasses        = []string{ClassP, ClassDiv, ClassChoiceInteraction, ClassExtendedTextInteraction}
	flowClasses         = append(append([]string(nil), blockClasses...), inlineClasses...)
)
