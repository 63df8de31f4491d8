package android

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/coderadar/internal/chunk"
)

func TestChunkPluginSupportsXMLSurfaces(t *testing.T) {
	p := NewChunkPlugin()
	assert.True(t, p.Supports("app/src/main/AndroidManifest.xml", StackType))
	assert.True(t, p.Supports("app/src/main/res/layout/activity_main.xml", StackType))
	assert.True(t, p.Supports("app/src/main/res/navigation/nav_graph.xml", StackType))
	assert.False(t, p.Supports("app/src/main/java/com/example/Main.kt", StackType))
	assert.False(t, p.Supports("app/src/main/res/layout/activity_main.xml", "web_app"))
}

func TestExtraChunksSummarizesLayout(t *testing.T) {
	p := NewChunkPlugin()
	src := []byte(`<?xml version="1.0" encoding="utf-8"?>
<LinearLayout xmlns:android="http://schemas.android.com/apk/res/android">
    <TextView android:id="@+id/title" />
    <Button android:id="@+id/submit" />
</LinearLayout>`)
	chunks := p.ExtraChunks(src, "app/src/main/res/layout/activity_main.xml", "repo1")
	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, "xml:summary", c.Symbol)
	ids, ok := c.Meta["view_ids"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"title", "submit"}, ids)
}

func TestExtraChunksSummarizesNavGraph(t *testing.T) {
	p := NewChunkPlugin()
	src := []byte(`<?xml version="1.0" encoding="utf-8"?>
<navigation xmlns:android="http://schemas.android.com/apk/res/android"
    xmlns:app="http://schemas.android.com/apk/res-auto">
    <fragment android:id="@+id/homeFragment">
        <action android:id="@+id/toDetail" app:destination="@id/detailFragment" />
    </fragment>
    <fragment android:id="@+id/detailFragment" />
</navigation>`)
	chunks := p.ExtraChunks(src, "app/src/main/res/navigation/nav_graph.xml", "repo1")
	require.Len(t, chunks, 1)
	dests, ok := chunks[0].Meta["destinations"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"homefragment", "detailfragment"}, dests)
}

func TestBuildPayloadDerivesEdgesFromKotlinSource(t *testing.T) {
	pp := NewPayloadPlugin()
	src := `class MainActivity : AppCompatActivity() {
    override fun onCreate(savedInstanceState: Bundle?) {
        setContentView(R.layout.activity_main)
        findViewById<Button>(R.id.submit).setOnClickListener {
            navigate(R.id.toDetail)
            startActivity(Intent(this, DetailActivity::class.java))
        }
        userApi.fetchProfile(userId)
    }
}`
	c := chunk.Chunk{Language: "kotlin", Content: src}
	f := pp.BuildPayload(c, "main", "abc123")
	assert.Equal(t, "activity", f.ComponentType)
	assert.Equal(t, "Main", f.ScreenName)
	assert.Equal(t, "layout/activity_main.xml", f.LayoutFile)

	types := map[string]bool{}
	for _, e := range f.Edges {
		types[e.Type] = true
	}
	assert.True(t, types["BINDS_LAYOUT"])
	assert.True(t, types["NAVIGATES_TO"])
	assert.True(t, types["CALLS_API"])
}

func TestBuildPayloadIgnoresNonAndroidSource(t *testing.T) {
	pp := NewPayloadPlugin()
	c := chunk.Chunk{Language: "go", Content: "func main() {}"}
	f := pp.BuildPayload(c, "main", "abc123")
	assert.Empty(t, f.ComponentType)
	assert.Empty(t, f.Edges)
}
