package browser

// snapshotDepth is the number of elements captured per hit: the element and
// enough ancestors for the ancestor walk.
const snapshotDepth = 12

// snapshotScript returns the hit element at (x, y) and its ancestors,
// nearest first, or an empty array.
const snapshotScript = `(function (x, y, depth) {
  const props = [
    "display", "visibility", "pointer-events",
    "background-color", "background-image",
    "border-top-color", "border-right-color", "border-bottom-color", "border-left-color",
    "color", "outline-color", "box-shadow", "text-shadow", "fill", "stroke"
  ];
  const styleOf = (cs) => {
    const out = {};
    for (const p of props) out[p] = cs.getPropertyValue(p);
    return out;
  };
  const snap = (e) => {
    const r = e.getBoundingClientRect();
    const out = {
      tag: e.localName,
      id: e.id || "",
      rect: { left: r.left, top: r.top, width: r.width, height: r.height },
      style: styleOf(getComputedStyle(e)),
      pseudo: {
        "::before": styleOf(getComputedStyle(e, "::before")),
        "::after": styleOf(getComputedStyle(e, "::after"))
      }
    };
    if (e instanceof HTMLImageElement) {
      out.image = {
        src: e.currentSrc || e.src,
        complete: e.complete,
        width: e.naturalWidth,
        height: e.naturalHeight
      };
    }
    if (e instanceof HTMLCanvasElement) {
      const c = { width: e.width, height: e.height, context: "", data: "", tainted: false };
      try {
        if (e.getContext("2d")) c.context = "2d";
      } catch (err) {}
      if (c.context === "2d") {
        try {
          c.data = e.toDataURL("image/png");
        } catch (err) {
          c.tainted = true;
        }
      }
      out.canvas = c;
    }
    return out;
  };
  const chain = [];
  for (let e = document.elementFromPoint(x, y); e && chain.length < depth; e = e.parentElement) {
    chain.push(snap(e));
  }
  return chain;
})(%v, %v, %d)`

// computeColorScript resolves a color string through a transient element,
// returning "" when the browser rejects it.
const computeColorScript = `(function (value) {
  const probe = document.createElement("div");
  probe.style.color = value;
  if (!probe.style.color) return "";
  probe.style.display = "none";
  document.documentElement.appendChild(probe);
  const out = getComputedStyle(probe).color;
  probe.remove();
  return out;
})(%s)`

// attachLayerScript adds a transparent full-viewport layer above the page.
const attachLayerScript = `(function (id, pointerEvents) {
  let layer = document.getElementById(id);
  if (!layer) {
    layer = document.createElement("div");
    layer.id = id;
    (document.body || document.documentElement).appendChild(layer);
  }
  layer.style.cssText = "position:fixed;left:0;top:0;width:100vw;height:100vh;" +
    "background:transparent;z-index:2147483647;pointer-events:" + (pointerEvents ? "auto" : "none");
  return true;
})(%s, %t)`

// hideLayerScript hides a layer and returns its previous display value.
const hideLayerScript = `(function (id) {
  const layer = document.getElementById(id);
  if (!layer) return "";
  const prev = layer.style.display;
  layer.style.display = "none";
  return prev;
})(%s)`

const restoreLayerScript = `(function (id, display) {
  const layer = document.getElementById(id);
  if (layer) layer.style.display = display;
  return true;
})(%s, %s)`

const removeLayerScript = `(function (id) {
  const layer = document.getElementById(id);
  if (layer) layer.remove();
  return true;
})(%s)`
