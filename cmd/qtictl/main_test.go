package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

const itemXML = `<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="capital" title="Capitals" adaptive="false" timeDependent="false">
  <responseDeclaration identifier="RESPONSE" cardinality="multiple" baseType="identifier">
    <correctResponse><value>A</value><value>C</value></correctResponse>
  </responseDeclaration>
  <outcomeDeclaration identifier="SCORE" cardinality="single" baseType="float"/>
  <itemBody>
    <choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="2">
      <simpleChoice identifier="A">Paris</simpleChoice>
      <simpleChoice identifier="B">Berlin</simpleChoice>
      <simpleChoice identifier="C">Lyon</simpleChoice>
    </choiceInteraction>
  </itemBody>
  <responseProcessing template="http://www.imsglobal.org/question/qti_v2p1/rptemplates/match_correct"/>
</assessmentItem>`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, jsonOut, tokenSep, packOut = false, false, ",", ""
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.xml", itemXML)
	out, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.xml: ok")

	bad := writeFile(t, "bad.xml", strings.Replace(itemXML, `maxChoices="2"`, `maxChoices="-1"`, 1))
	out, err = run(t, "validate", bad)
	assert.ErrorIs(t, err, errFound)
	assert.Contains(t, out, "bad.xml: error:")

	out, err = run(t, "validate", "--json", good)
	require.NoError(t, err)
	var reports []struct {
		Source string `json:"source"`
		Valid  bool   `json:"valid"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Valid)

	_, err = run(t, "validate", filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}

func TestValidatePackage(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"imsmanifest.xml": `<manifest><resources>
  <resource identifier="r1" type="imsqti_item_xmlv2p1" href="capital.xml"/>
</resources></manifest>`,
		"capital.xml": itemXML,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	pkg := writeFile(t, "pkg.zip", buf.String())

	out, err := run(t, "validate", pkg)
	require.NoError(t, err)
	assert.Contains(t, out, "pkg.zip!capital.xml: ok")
}

func TestValidateMalformedAttributeOnce(t *testing.T) {
	bad := writeFile(t, "bad.xml", strings.Replace(itemXML, `timeDependent="false"`, `timeDependent="maybe"`, 1))
	out, err := run(t, "validate", bad)
	assert.ErrorIs(t, err, errFound)
	assert.Equal(t, 1, strings.Count(out, "error:"), out)
	assert.Contains(t, out, `Invalid value "maybe" for attribute timeDependent`)
}

func TestDecompose(t *testing.T) {
	out, err := run(t, "decompose", "--", "-0.0250")
	require.NoError(t, err)
	assert.Contains(t, out, "rightDigits  4")
	assert.Contains(t, out, "nsf          5")
	assert.Contains(t, out, "exponent     NULL")

	out, err = run(t, "decompose", "--json", "12")
	require.NoError(t, err)
	v, err := value.Unmarshal([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, value.Record, v.Cardinality())

	_, err = run(t, "decompose", "1e2E3")
	assert.Error(t, err)
}

func TestBind(t *testing.T) {
	item := writeFile(t, "item.xml", itemXML)

	out, err := run(t, "bind", item, "RESPONSE=C,A")
	require.NoError(t, err)
	assert.Contains(t, out, "bound    RESPONSE")
	assert.Contains(t, out, "match_correct: score 1")

	out, err = run(t, "bind", item, "RESPONSE=A;B;C", "--sep", ";")
	assert.ErrorIs(t, err, errFound, "three choices exceed maxChoices")
	assert.Contains(t, out, "invalid  RESPONSE")

	out, err = run(t, "bind", "--json", item, "NOPE=x")
	assert.ErrorIs(t, err, errFound)
	var rep bindReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Contains(t, rep.Failures, "NOPE")

	_, err = run(t, "bind", item, "garbage")
	assert.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	raw, err := parseAssignments([]string{"A=1,2", "B=", "C=x=y"}, ",")
	require.NoError(t, err)
	assert.Equal(t, map[value.Identifier][]string{
		"A": {"1", "2"},
		"B": {},
		"C": {"x=y"},
	}, raw)
}

func TestPack(t *testing.T) {
	item := writeFile(t, "item.xml", itemXML)
	out := filepath.Join(t.TempDir(), "unit.zip")

	msg, err := run(t, "pack", "-o", out, item)
	require.NoError(t, err)
	assert.Contains(t, msg, "wrote 1 items")

	listing, err := run(t, "validate", out)
	require.NoError(t, err)
	assert.Contains(t, listing, "unit.zip!capital.xml: ok")

	bad := writeFile(t, "bad.xml", strings.Replace(itemXML, `maxChoices="2"`, `maxChoices="-1"`, 1))
	_, err = run(t, "pack", "-o", out, bad)
	assert.Error(t, err)
}
