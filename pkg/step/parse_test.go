package step_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chazu/stepmesh/internal/fixture"
	"github.com/chazu/stepmesh/pkg/step"
)

// doc wraps a DATA body in the minimal exchange-structure envelope.
func doc(body string) []byte {
	return []byte(`ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('test'),'2;1');
FILE_NAME('part','2026-08-23',(''),(''),'','','');
FILE_SCHEMA(('AUTOMOTIVE_DESIGN'));
ENDSEC;
DATA;
` + body + `
ENDSEC;
END-ISO-10303-21;
`)
}

func TestParseHeader(t *testing.T) {
	f, err := step.Parse(doc(`#1=CARTESIAN_POINT('',(0.,0.,0.));`))
	require.NoError(t, err)
	require.Equal(t, "test", f.Description)
	require.Equal(t, "part", f.Name)
	require.Equal(t, "AUTOMOTIVE_DESIGN", f.Schema)
}

func TestParseCubeFixture(t *testing.T) {
	f, err := step.Parse([]byte(fixture.Cube))
	require.NoError(t, err)
	require.Equal(t, "cube", f.Name)

	faces := f.OfType("ADVANCED_FACE")
	require.Len(t, faces, 6)
	for i := 1; i < len(faces); i++ {
		require.Less(t, faces[i-1].ID, faces[i].ID, "OfType must sort by id")
	}

	e := f.Get(61)
	require.NotNil(t, e)
	require.Equal(t, "EDGE_CURVE", e.Type)
	require.Len(t, e.Args, 5)
	require.Equal(t, step.KindRef, e.Args[1].Kind)
	require.Equal(t, step.EntityID(11), e.Args[1].Ref)
	require.Equal(t, step.KindEnum, e.Args[4].Kind)
	require.Equal(t, "T", e.Args[4].Str)

	require.Nil(t, f.Get(9999))
}

func TestForwardReference(t *testing.T) {
	f, err := step.Parse(doc(`#1=VERTEX_POINT('',#2);
#2=CARTESIAN_POINT('',(1.,2.,3.));`))
	require.NoError(t, err)
	require.Equal(t, step.EntityID(2), f.Get(1).Args[1].Ref)
}

func TestCommentsAndWhitespace(t *testing.T) {
	f, err := step.Parse(doc(`/* leading comment */
#1 = CARTESIAN_POINT ( 'origin' , /* inline */ ( 0. , -1.5E-2 , 3. ) ) ;`))
	require.NoError(t, err)
	e := f.Get(1)
	require.Equal(t, "origin", e.Args[0].Str)
	coords := e.Args[1].List
	require.Len(t, coords, 3)
	require.InDelta(t, -0.015, coords[1].Num, 1e-12)
}

func TestStringEscape(t *testing.T) {
	f, err := step.Parse(doc(`#1=CARTESIAN_POINT('it''s',(0.,0.,0.));`))
	require.NoError(t, err)
	require.Equal(t, "it's", f.Get(1).Args[0].Str)
}

func TestNullAndDerivedValues(t *testing.T) {
	f, err := step.Parse(doc(`#1=ORIENTED_EDGE('',*,*,#2,.F.);
#2=CARTESIAN_POINT('',(0.,0.,0.));`))
	require.NoError(t, err)
	e := f.Get(1)
	require.Equal(t, step.KindNull, e.Args[1].Kind)
	require.Equal(t, step.KindNull, e.Args[2].Kind)
	require.Equal(t, "F", e.Args[4].Str)
}

func TestComplexInstance(t *testing.T) {
	f, err := step.Parse(doc(`#1=(GEOMETRIC_REPRESENTATION_CONTEXT(3)GLOBAL_UNIT_ASSIGNED_CONTEXT((#2))REPRESENTATION_CONTEXT('',''));
#2=CARTESIAN_POINT('',(0.,0.,0.));`))
	require.NoError(t, err)
	e := f.Get(1)
	require.Empty(t, e.Type)
	require.Len(t, e.Args, 3)
	require.Equal(t, step.KindTyped, e.Args[0].Kind)
	require.Equal(t, "GEOMETRIC_REPRESENTATION_CONTEXT", e.Args[0].Str)
	require.Equal(t, "GLOBAL_UNIT_ASSIGNED_CONTEXT", e.Args[1].Str)
}

func TestTypedArgument(t *testing.T) {
	f, err := step.Parse(doc(`#1=TRIMMED_CURVE('',#2,(PARAMETER_VALUE(0.)),(PARAMETER_VALUE(6.28)),.T.,.PARAMETER.);
#2=CARTESIAN_POINT('',(0.,0.,0.));`))
	require.NoError(t, err)
	v := f.Get(1).Args[2].List[0]
	require.Equal(t, step.KindTyped, v.Kind)
	require.Equal(t, "PARAMETER_VALUE", v.Str)
	require.InDelta(t, 0.0, v.List[0].Num, 1e-12)
}

func TestUnknownSectionSkipped(t *testing.T) {
	in := []byte(`ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('part','',(''),(''),'','','');
FILE_SCHEMA(('AP203'));
ENDSEC;
ANCHOR;
<anything> = #1;
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
ENDSEC;
END-ISO-10303-21;
`)
	f, err := step.Parse(in)
	require.NoError(t, err)
	require.NotNil(t, f.Get(1))
}

func TestMissingHeaderMagic(t *testing.T) {
	_, err := step.Parse([]byte(`DATA; ENDSEC;`))
	var perr *step.ParseError
	require.ErrorAs(t, err, &perr)
	require.Contains(t, perr.Error(), "ISO-10303-21")
}

func TestUnresolvedReference(t *testing.T) {
	_, err := step.Parse(doc(`#1=VERTEX_POINT('',#42);`))
	var perr *step.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, step.EntityID(1), perr.Entity)
	require.Contains(t, perr.Msg, "#42")
}

func TestDuplicateEntityID(t *testing.T) {
	_, err := step.Parse(doc(`#1=CARTESIAN_POINT('',(0.,0.,0.));
#1=CARTESIAN_POINT('',(1.,0.,0.));`))
	var perr *step.ParseError
	require.ErrorAs(t, err, &perr)
	require.Contains(t, perr.Msg, "duplicate")
}

func TestTruncatedFile(t *testing.T) {
	_, err := step.Parse(doc(`#1=CARTESIAN_POINT('',(0.,0.,0.)`)[:90])
	require.Error(t, err)
	var perr *step.ParseError
	require.True(t, errors.As(err, &perr))
}
