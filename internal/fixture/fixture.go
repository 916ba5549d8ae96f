// Package fixture holds small hand-written STEP exchange files shared
// by tests across packages.
package fixture

// Cube is a 10x10x10 box with its minimum corner at the origin: one
// MANIFOLD_SOLID_BREP, six planar faces, twelve line edges.
const Cube = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('cube','2026-08-23T00:00:00',(''),(''),'','','');
FILE_SCHEMA(('AUTOMOTIVE_DESIGN'));
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
#2=CARTESIAN_POINT('',(10.,0.,0.));
#3=CARTESIAN_POINT('',(10.,10.,0.));
#4=CARTESIAN_POINT('',(0.,10.,0.));
#5=CARTESIAN_POINT('',(0.,0.,10.));
#6=CARTESIAN_POINT('',(10.,0.,10.));
#7=CARTESIAN_POINT('',(10.,10.,10.));
#8=CARTESIAN_POINT('',(0.,10.,10.));
#11=VERTEX_POINT('',#1);
#12=VERTEX_POINT('',#2);
#13=VERTEX_POINT('',#3);
#14=VERTEX_POINT('',#4);
#15=VERTEX_POINT('',#5);
#16=VERTEX_POINT('',#6);
#17=VERTEX_POINT('',#7);
#18=VERTEX_POINT('',#8);
#21=DIRECTION('',(1.,0.,0.));
#22=DIRECTION('',(0.,1.,0.));
#23=DIRECTION('',(0.,0.,1.));
#24=DIRECTION('',(-1.,0.,0.));
#25=DIRECTION('',(0.,-1.,0.));
#26=DIRECTION('',(0.,0.,-1.));
#31=VECTOR('',#21,1.);
#32=VECTOR('',#22,1.);
#33=VECTOR('',#23,1.);
#34=VECTOR('',#24,1.);
#35=VECTOR('',#25,1.);
#41=LINE('',#1,#31);
#42=LINE('',#2,#32);
#43=LINE('',#3,#34);
#44=LINE('',#4,#35);
#45=LINE('',#5,#31);
#46=LINE('',#6,#32);
#47=LINE('',#7,#34);
#48=LINE('',#8,#35);
#49=LINE('',#1,#33);
#50=LINE('',#2,#33);
#51=LINE('',#3,#33);
#52=LINE('',#4,#33);
#61=EDGE_CURVE('',#11,#12,#41,.T.);
#62=EDGE_CURVE('',#12,#13,#42,.T.);
#63=EDGE_CURVE('',#13,#14,#43,.T.);
#64=EDGE_CURVE('',#14,#11,#44,.T.);
#65=EDGE_CURVE('',#15,#16,#45,.T.);
#66=EDGE_CURVE('',#16,#17,#46,.T.);
#67=EDGE_CURVE('',#17,#18,#47,.T.);
#68=EDGE_CURVE('',#18,#15,#48,.T.);
#69=EDGE_CURVE('',#11,#15,#49,.T.);
#70=EDGE_CURVE('',#12,#16,#50,.T.);
#71=EDGE_CURVE('',#13,#17,#51,.T.);
#72=EDGE_CURVE('',#14,#18,#52,.T.);
#81=AXIS2_PLACEMENT_3D('',#1,#26,#21);
#82=AXIS2_PLACEMENT_3D('',#5,#23,#21);
#83=AXIS2_PLACEMENT_3D('',#1,#25,#21);
#84=AXIS2_PLACEMENT_3D('',#2,#21,#22);
#85=AXIS2_PLACEMENT_3D('',#3,#22,#21);
#86=AXIS2_PLACEMENT_3D('',#1,#24,#22);
#91=PLANE('',#81);
#92=PLANE('',#82);
#93=PLANE('',#83);
#94=PLANE('',#84);
#95=PLANE('',#85);
#96=PLANE('',#86);
#111=ORIENTED_EDGE('',*,*,#61,.T.);
#112=ORIENTED_EDGE('',*,*,#62,.T.);
#113=ORIENTED_EDGE('',*,*,#63,.T.);
#114=ORIENTED_EDGE('',*,*,#64,.T.);
#115=ORIENTED_EDGE('',*,*,#65,.T.);
#116=ORIENTED_EDGE('',*,*,#66,.T.);
#117=ORIENTED_EDGE('',*,*,#67,.T.);
#118=ORIENTED_EDGE('',*,*,#68,.T.);
#119=ORIENTED_EDGE('',*,*,#61,.T.);
#120=ORIENTED_EDGE('',*,*,#70,.T.);
#121=ORIENTED_EDGE('',*,*,#65,.F.);
#122=ORIENTED_EDGE('',*,*,#69,.F.);
#123=ORIENTED_EDGE('',*,*,#62,.T.);
#124=ORIENTED_EDGE('',*,*,#71,.T.);
#125=ORIENTED_EDGE('',*,*,#66,.F.);
#126=ORIENTED_EDGE('',*,*,#70,.F.);
#127=ORIENTED_EDGE('',*,*,#63,.T.);
#128=ORIENTED_EDGE('',*,*,#72,.T.);
#129=ORIENTED_EDGE('',*,*,#67,.F.);
#130=ORIENTED_EDGE('',*,*,#71,.F.);
#131=ORIENTED_EDGE('',*,*,#64,.T.);
#132=ORIENTED_EDGE('',*,*,#69,.T.);
#133=ORIENTED_EDGE('',*,*,#68,.F.);
#134=ORIENTED_EDGE('',*,*,#72,.F.);
#101=EDGE_LOOP('',(#111,#112,#113,#114));
#102=EDGE_LOOP('',(#115,#116,#117,#118));
#103=EDGE_LOOP('',(#119,#120,#121,#122));
#104=EDGE_LOOP('',(#123,#124,#125,#126));
#105=EDGE_LOOP('',(#127,#128,#129,#130));
#106=EDGE_LOOP('',(#131,#132,#133,#134));
#141=FACE_OUTER_BOUND('',#101,.T.);
#142=FACE_OUTER_BOUND('',#102,.T.);
#143=FACE_OUTER_BOUND('',#103,.T.);
#144=FACE_OUTER_BOUND('',#104,.T.);
#145=FACE_OUTER_BOUND('',#105,.T.);
#146=FACE_OUTER_BOUND('',#106,.T.);
#151=ADVANCED_FACE('',(#141),#91,.T.);
#152=ADVANCED_FACE('',(#142),#92,.T.);
#153=ADVANCED_FACE('',(#143),#93,.T.);
#154=ADVANCED_FACE('',(#144),#94,.T.);
#155=ADVANCED_FACE('',(#145),#95,.T.);
#156=ADVANCED_FACE('',(#146),#96,.T.);
#160=CLOSED_SHELL('',(#151,#152,#153,#154,#155,#156));
#161=MANIFOLD_SOLID_BREP('',#160);
ENDSEC;
END-ISO-10303-21;
`

// Cylinder is a radius-5, height-10 cylinder on the Z axis: two planar
// caps bounded by closed circular edges and one cylindrical lateral
// face whose loop traverses the seam edge twice.
const Cylinder = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('cylinder','2026-08-23T00:00:00',(''),(''),'','','');
FILE_SCHEMA(('AUTOMOTIVE_DESIGN'));
ENDSEC;
DATA;
#1=CARTESIAN_POINT('',(0.,0.,0.));
#2=CARTESIAN_POINT('',(0.,0.,10.));
#3=CARTESIAN_POINT('',(5.,0.,0.));
#4=CARTESIAN_POINT('',(5.,0.,10.));
#11=VERTEX_POINT('',#3);
#12=VERTEX_POINT('',#4);
#21=DIRECTION('',(1.,0.,0.));
#23=DIRECTION('',(0.,0.,1.));
#26=DIRECTION('',(0.,0.,-1.));
#31=VECTOR('',#23,1.);
#41=AXIS2_PLACEMENT_3D('',#1,#23,#21);
#42=AXIS2_PLACEMENT_3D('',#2,#23,#21);
#43=AXIS2_PLACEMENT_3D('',#1,#26,#21);
#51=CIRCLE('',#41,5.);
#52=CIRCLE('',#42,5.);
#53=LINE('',#3,#31);
#61=EDGE_CURVE('',#11,#11,#51,.T.);
#62=EDGE_CURVE('',#12,#12,#52,.T.);
#63=EDGE_CURVE('',#11,#12,#53,.T.);
#71=CYLINDRICAL_SURFACE('',#41,5.);
#72=PLANE('',#42);
#73=PLANE('',#43);
#111=ORIENTED_EDGE('',*,*,#63,.T.);
#112=ORIENTED_EDGE('',*,*,#62,.T.);
#113=ORIENTED_EDGE('',*,*,#63,.F.);
#114=ORIENTED_EDGE('',*,*,#61,.F.);
#115=ORIENTED_EDGE('',*,*,#62,.F.);
#116=ORIENTED_EDGE('',*,*,#61,.T.);
#101=EDGE_LOOP('',(#111,#112,#113,#114));
#102=EDGE_LOOP('',(#115));
#103=EDGE_LOOP('',(#116));
#121=FACE_OUTER_BOUND('',#101,.T.);
#122=FACE_OUTER_BOUND('',#102,.T.);
#123=FACE_OUTER_BOUND('',#103,.T.);
#131=ADVANCED_FACE('',(#121),#71,.T.);
#132=ADVANCED_FACE('',(#122),#72,.T.);
#133=ADVANCED_FACE('',(#123),#73,.T.);
#141=CLOSED_SHELL('',(#131,#132,#133));
#142=MANIFOLD_SOLID_BREP('',#141);
ENDSEC;
END-ISO-10303-21;
`
