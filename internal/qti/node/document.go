package node

import (
	"fmt"

	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
)

type factory func(doc *Document, id, parent ID) Node

var factories map[string]factory

func init() {
	factories = map[string]factory{
		ClassAssessmentItem:          newAssessmentItem,
		ClassResponseDeclaration:     newResponseDeclaration,
		ClassOutcomeDeclaration:      newOutcomeDeclaration,
		ClassTemplateDeclaration:     newTemplateDeclaration,
		ClassDefaultValue:            newDefaultValue,
		ClassCorrectResponse:         newCorrectResponse,
		ClassValue:                   newValueNode,
		ClassMapping:                 newMapping,
		ClassMapEntry:                newMapEntry,
		ClassResponseProcessing:      newResponseProcessing,
		ClassItemBody:                newItemBody,
		ClassDiv:                     newDiv,
		ClassP:                       newP,
		ClassSpan:                    newSpan,
		ClassTextRun:                 newTextRun,
		ClassPrompt:                  newPrompt,
		ClassChoiceInteraction:       newChoiceInteraction,
		ClassSimpleChoice:            newSimpleChoice,
		ClassTextEntryInteraction:    newTextEntryInteraction,
		ClassExtendedTextInteraction: newExtendedTextInteraction,
	}
}

// Document is the arena owning every node of one tree. A Document is used by
// one session at a time; it has no internal locking.
type Document struct {
	nodes []Node
	root  ID
}

// NewDocument creates a document with a root of the given class.
func NewDocument(rootClass string) (*Document, Node, error) {
	if rootClass != ClassAssessmentItem {
		return nil, nil, fmt.Errorf("%q cannot be a document root", rootClass)
	}
	d := &Document{root: NoID}
	root, err := d.create(rootClass, NoID)
	if err != nil {
		return nil, nil, err
	}
	d.root = root.ID()
	return d, root, nil
}

// NewItem creates a document rooted at an empty assessmentItem.
func NewItem() (*Document, *AssessmentItem) {
	d, root, err := NewDocument(ClassAssessmentItem)
	if err != nil {
		panic(err)
	}
	return d, root.(*AssessmentItem)
}

func (d *Document) Root() Node { return d.Node(d.root) }

// Item returns the root as an assessmentItem, or nil.
func (d *Document) Item() *AssessmentItem {
	it, _ := d.Root().(*AssessmentItem)
	return it
}

// Node resolves a handle. Unknown handles and NoID resolve to nil.
func (d *Document) Node(id ID) Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return d.nodes[id]
}

// Validate walks the whole tree and returns the collected diagnostics.
func (d *Document) Validate() *validation.Context {
	ctx := validation.NewContext()
	if root := d.Root(); root != nil {
		Validate(root, ctx)
	}
	return ctx
}

func (d *Document) create(class string, parent ID) (Node, error) {
	f, ok := factories[class]
	if !ok {
		return nil, &UnsupportedChildError{Class: class}
	}
	id := ID(len(d.nodes))
	n := f(d, id, parent)
	d.nodes = append(d.nodes, n)
	return n, nil
}
